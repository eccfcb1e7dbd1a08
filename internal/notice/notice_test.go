package notice

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"aorify/internal/model"
)

func TestFor(t *testing.T) {
	remote := func(code int, msg string) error {
		return fmt.Errorf("sign in: %w", &model.RemoteError{Code: code, Message: msg})
	}

	tests := []struct {
		name string
		err  error
		want Notice
	}{
		{"nil", nil, Notice{}},
		{"rate limit", remote(429, model.MsgRateLimit), RateLimited},
		{"invalid email", remote(400, model.MsgInvalidEmail), InvalidEmail},
		{"invalid credentials", remote(401, model.MsgInvalidCredentials), InvalidCredentials},
		{"invalid password", remote(400, model.MsgInvalidPassword), InvalidPassword},
		{"missing fields", fmt.Errorf("create video: %w", model.ErrMissingFields), FieldsRequired},
		{"other remote", remote(500, "Server Error"), Generic},
		{"plain", errors.New("boom"), Generic},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, For(tt.err))
		})
	}
}

func TestError(t *testing.T) {
	assert.Equal(t, InvalidCredentials, Error(&model.RemoteError{Code: 401, Message: model.MsgInvalidCredentials}))

	n := Error(errors.New("unsave post p1: not found"))
	assert.Equal(t, LevelError, n.Level)
	assert.Equal(t, "Error", n.Title)
	assert.Equal(t, "unsave post p1: not found", n.Detail)
}
