//go:build darwin

package stt

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework Foundation
#import <Foundation/Foundation.h>
#include <stdlib.h>

static char* firstPreferredLanguage(void) {
	@autoreleasepool {
		NSArray<NSString *> *langs = [NSLocale preferredLanguages];
		if (langs.count == 0) {
			return NULL;
		}
		return strdup([langs[0] UTF8String]);
	}
}
*/
import "C"

import "unsafe"

func preferredLanguages() []string {
	cstr := C.firstPreferredLanguage()
	if cstr == nil {
		return nil
	}
	defer C.free(unsafe.Pointer(cstr))
	return []string{C.GoString(cstr)}
}
