package model

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// ErrInvalidMindmap is returned when a mindmap breaks its referential invariants.
var ErrInvalidMindmap = errors.New("invalid mindmap")

func validatorGet() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		_ = validate.RegisterValidation("finite", validateFinite)
	})
	return validate
}

// validateFinite rejects NaN and infinite floats, which sqlite and JSON cannot hold.
func validateFinite(fl validator.FieldLevel) bool {
	v := fl.Field().Float()
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Validate checks the struct tags of a model record.
func Validate(v interface{}) error {
	if err := validatorGet().Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("field %s failed on %s: %w", fe.Namespace(), fe.Tag(), err)
		}
		return err
	}
	return nil
}

// CheckMindmap verifies the cross-record invariants of a mindmap: exactly one
// main thread equal to MainThreadID, an existing active thread, stickies that
// point at existing threads and unique ids.
func CheckMindmap(m *Mindmap) error {
	if m == nil {
		return fmt.Errorf("%w: nil mindmap", ErrInvalidMindmap)
	}
	if err := Validate(m); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidMindmap, err)
	}

	threads := make(map[string]bool, len(m.Threads))
	mains := 0
	for _, t := range m.Threads {
		if threads[t.ID] {
			return fmt.Errorf("%w: duplicate thread id %s", ErrInvalidMindmap, t.ID)
		}
		threads[t.ID] = true
		if t.IsMainThread {
			mains++
			if t.ID != m.MainThreadID {
				return fmt.Errorf("%w: main thread %s does not match %s", ErrInvalidMindmap, t.ID, m.MainThreadID)
			}
		}
	}
	if mains != 1 {
		return fmt.Errorf("%w: expected one main thread, found %d", ErrInvalidMindmap, mains)
	}
	if !threads[m.ActiveThreadID] {
		return fmt.Errorf("%w: active thread %s not found", ErrInvalidMindmap, m.ActiveThreadID)
	}
	for _, t := range m.Threads {
		if t.ParentThreadID != "" && !threads[t.ParentThreadID] {
			return fmt.Errorf("%w: thread %s has unknown parent %s", ErrInvalidMindmap, t.ID, t.ParentThreadID)
		}
	}

	stickies := make(map[string]bool, len(m.Stickies))
	for _, s := range m.Stickies {
		if stickies[s.ID] {
			return fmt.Errorf("%w: duplicate sticky id %s", ErrInvalidMindmap, s.ID)
		}
		stickies[s.ID] = true
		if !threads[s.ThreadID] {
			return fmt.Errorf("%w: sticky %s references unknown thread %s", ErrInvalidMindmap, s.ID, s.ThreadID)
		}
	}
	return nil
}
