//go:build darwin

package clipboard

// #cgo CFLAGS: -x objective-c
// #cgo LDFLAGS: -framework Cocoa
// #import <Cocoa/Cocoa.h>
// #include <stdlib.h>
// char* getClipboardContent() {
//     @autoreleasepool {
//         NSPasteboard *pasteboard = [NSPasteboard generalPasteboard];
//         NSString *string = [pasteboard stringForType:NSPasteboardTypeString];
//         if (string == nil) {
//             return NULL;
//         }
//         return strdup([string UTF8String]);
//     }
// }
// int setClipboardContent(const char *text) {
//     @autoreleasepool {
//         NSPasteboard *pasteboard = [NSPasteboard generalPasteboard];
//         [pasteboard clearContents];
//         NSString *string = [NSString stringWithUTF8String:text];
//         return [pasteboard setString:string forType:NSPasteboardTypeString] ? 1 : 0;
//     }
// }
import "C"

import (
	"errors"
	"unsafe"
)

func getText() (string, error) {
	cstr := C.getClipboardContent()
	if cstr == nil {
		// Empty or non-text pasteboard.
		return "", nil
	}
	defer C.free(unsafe.Pointer(cstr))
	return C.GoString(cstr), nil
}

func setText(text string) error {
	cstr := C.CString(text)
	defer C.free(unsafe.Pointer(cstr))
	if C.setClipboardContent(cstr) == 0 {
		return errors.New("failed to set clipboard content")
	}
	return nil
}
