//go:build darwin

package permission

/*
#cgo CFLAGS: -x objective-c -fobjc-arc
#cgo LDFLAGS: -framework ApplicationServices -framework IOKit -framework AVFoundation -framework Foundation
#import <AVFoundation/AVFoundation.h>
#import <ApplicationServices/ApplicationServices.h>
#include <dlfcn.h>
#include <stdbool.h>

// Results: -1 unsupported, 0 denied, 1 granted, 2 not determined.

static int preflightListenEventAccess(void) {
	bool (*fn)(void) = (bool (*)(void))dlsym(RTLD_DEFAULT, "CGPreflightListenEventAccess");
	if (fn == NULL) {
		return -1;
	}
	return fn() ? 1 : 0;
}

static int hidCheckListenAccess(void) {
	// IOHIDCheckAccess(kIOHIDRequestTypeListenEvent)
	int (*fn)(int) = (int (*)(int))dlsym(RTLD_DEFAULT, "IOHIDCheckAccess");
	if (fn == NULL) {
		return -1;
	}
	switch (fn(1)) {
	case 0:
		return 1;
	case 1:
		return 0;
	default:
		return 2;
	}
}

static void requestListenEventAccess(void) {
	bool (*fn)(void) = (bool (*)(void))dlsym(RTLD_DEFAULT, "CGRequestListenEventAccess");
	if (fn != NULL) {
		fn();
	}
}

static int accessibilityTrusted(void) {
	return AXIsProcessTrusted() ? 1 : 0;
}

static void requestAccessibility(void) {
	NSDictionary *opts = @{(__bridge id)kAXTrustedCheckOptionPrompt: @YES};
	AXIsProcessTrustedWithOptions((__bridge CFDictionaryRef)opts);
}

static int microphoneStatus(void) {
	switch ([AVCaptureDevice authorizationStatusForMediaType:AVMediaTypeAudio]) {
	case AVAuthorizationStatusAuthorized:
		return 1;
	case AVAuthorizationStatusNotDetermined:
		return 2;
	default:
		return 0;
	}
}

static void requestMicrophone(void) {
	[AVCaptureDevice requestAccessForMediaType:AVMediaTypeAudio completionHandler:^(BOOL granted) {}];
}
*/
import "C"

const settingsBase = "x-apple.systempreferences:com.apple.preference.security?"

var settingsPanes = map[Capability]string{
	Microphone:      settingsBase + "Privacy_Microphone",
	InputMonitoring: settingsBase + "Privacy_ListenEvent",
	Accessibility:   settingsBase + "Privacy_Accessibility",
}

func fromC(v C.int) Status {
	switch v {
	case 0:
		return Denied
	case 1:
		return Granted
	case 2:
		return NotDetermined
	default:
		return Unsupported
	}
}

func platformProbes() map[Capability]Probe {
	return map[Capability]Probe{
		Microphone: func() Status { return fromC(C.microphoneStatus()) },
		InputMonitoring: Chain(
			func() Status { return fromC(C.preflightListenEventAccess()) },
			func() Status { return fromC(C.hidCheckListenAccess()) },
		),
		Accessibility: func() Status { return fromC(C.accessibilityTrusted()) },
	}
}

func platformRequests() map[Capability]func() {
	return map[Capability]func(){
		Microphone:      func() { C.requestMicrophone() },
		InputMonitoring: func() { C.requestListenEventAccess() },
		Accessibility:   func() { C.requestAccessibility() },
	}
}
