package espeak

/*
#cgo LDFLAGS: -lespeak-ng
#include <stdlib.h>
#include <espeak-ng/speak_lib.h>

static int
espeak_init(const char *lang)
{
	if (espeak_Initialize(AUDIO_OUTPUT_SYNCH_PLAYBACK, 500, NULL, 0) < 0)
	{ return -1; }

	espeak_VOICE specs = { .languages = lang };
	if (espeak_SetVoiceByProperties(&specs) != EE_OK)
	{ return -2; }

	return 0;
}

static int
espeak_say(const char *text)
{
	if (!text)
	{ return -1; }

	if (espeak_Synth(text, 500, 0, 0, 0, espeakCHARS_AUTO, NULL, NULL) != EE_OK)
	{ return -2; }
	espeak_Synchronize();

	return 0;
}
*/
import "C"

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"unsafe"
)

// Voice speaks through libespeak-ng with synchronous playback.
type Voice struct {
	mu sync.Mutex
}

// New initializes espeak-ng with a voice for lang ("en-US", "ru", ...).
func New(lang string) (*Voice, error) {
	clang := C.CString(strings.ToLower(lang))
	defer C.free(unsafe.Pointer(clang))

	if rc := C.espeak_init(clang); rc != 0 {
		return nil, fmt.Errorf("espeak_init failed: %d", int(rc))
	}

	return &Voice{}, nil
}

// Say blocks until playback ends. Cancelling ctx interrupts playback.
func (v *Voice) Say(ctx context.Context, text string) error {
	if text == "" {
		return nil
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	ctext := C.CString(text)
	defer C.free(unsafe.Pointer(ctext))

	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			C.espeak_Cancel()
		case <-done:
		}
	}()

	rc := C.espeak_say(ctext)
	close(done)

	if err := ctx.Err(); err != nil {
		return err
	}
	if rc != 0 {
		return fmt.Errorf("espeak_say failed: %d", int(rc))
	}

	return nil
}

func (v *Voice) Close() {
	C.espeak_Terminate()
}
