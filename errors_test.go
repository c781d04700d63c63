package hywire

import (
	"errors"
	"fmt"
	"testing"

	"github.com/hywire/hywire/lib/encoding"
)

func TestSentinelErrorsDistinct(t *testing.T) {
	errs := []error{
		ErrTargetNotFound,
		ErrNoRuntime,
		ErrInvalidFormat,
		ErrSignatureInvalid,
		ErrDecryptFailed,
	}
	for i, e1 := range errs {
		for j, e2 := range errs {
			if i != j && errors.Is(e1, e2) {
				t.Errorf("sentinels not distinct: %v and %v", e1, e2)
			}
		}
	}
}

func TestIsSnapshotError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"invalid format", ErrInvalidFormat, true},
		{"signature", ErrSignatureInvalid, true},
		{"decrypt", ErrDecryptFailed, true},
		{"wrapped", fmt.Errorf("restore: %w", ErrSignatureInvalid), true},
		{"unrelated", errors.New("boom"), false},
		{"target not found", ErrTargetNotFound, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsSnapshotError(tt.err); got != tt.want {
				t.Errorf("IsSnapshotError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestWrapEncodingError(t *testing.T) {
	tests := []struct {
		in   error
		want error
	}{
		{nil, nil},
		{encoding.ErrInvalidFormat, ErrInvalidFormat},
		{encoding.ErrSignatureInvalid, ErrSignatureInvalid},
		{encoding.ErrDecryptFailed, ErrDecryptFailed},
		{fmt.Errorf("wrap: %w", encoding.ErrDecryptFailed), ErrDecryptFailed},
	}
	for _, tt := range tests {
		if got := wrapEncodingError(tt.in); got != tt.want {
			t.Errorf("wrapEncodingError(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}

	other := errors.New("other")
	if got := wrapEncodingError(other); got != other {
		t.Errorf("unrelated error rewrapped: %v", got)
	}
}
