//go:build !inkdebug

package image1bit

const strictBounds = false
