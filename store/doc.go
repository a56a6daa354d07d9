// Package store keeps drawing state and saved images in a directory tree.
//
// Layout under the root directory (names configurable):
//
//	state/draw.json        checkpointed cursor state
//	state/image.json       image viewer position
//	images/drawing_N.bmp   saved drawings
//	images/screen_T.bmp    screenshots
//	badges/badge.bmp       name badge (or badge.png, badge.jpg)
//
// The state documents are JSON and are checked against embedded schemas on
// load; anything that fails to parse or validate is reported as
// inkdraw.ErrStorageRead so the caller can start from defaults. Writes go to
// a temporary file that is renamed over the target, so a power cut leaves
// either the old or the new file. Images are never replaced: their name is
// reserved with O_EXCL before the rename.
//
// The viewer reads BMP files of any bit depth, PNG and JPEG.
package store
