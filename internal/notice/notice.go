// Package notice turns operation results into the short title/detail
// messages shown to the user.
package notice

import (
	"errors"

	"aorify/internal/model"
)

// Level is the severity a notice is shown with.
type Level string

const (
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
	LevelError   Level = "error"
)

type Notice struct {
	Level  Level
	Title  string
	Detail string
}

func (n Notice) String() string {
	return n.Title + " " + n.Detail
}

var (
	RateLimited        = Notice{LevelError, "Rate limit exceeded for this endpoint.", "Please try again after some time."}
	InvalidEmail       = Notice{LevelError, "Invalid Email Address.", "Please input a valid email address."}
	InvalidCredentials = Notice{LevelError, "Invalid Credentials.", "Please check your email and password and try again."}
	InvalidPassword    = Notice{LevelError, "Invalid Password.", "Password must be 8-265 characters and not commonly used."}
	FieldsRequired     = Notice{LevelError, "All Fields are Required!", "Please fill in all the fields."}
	Generic            = Notice{LevelError, "Error occurred.", "Please try again!"}

	SignedIn     = Notice{LevelSuccess, "Authenticated!", "Successfully signed in!"}
	AccountMade  = Notice{LevelSuccess, "Account Created.", "Successfully created account!"}
	SignedOut    = Notice{LevelSuccess, "Logout!", "Logout Successfully!"}
	PostSaved    = Notice{LevelSuccess, "Saved!", "Post Saved Successfully!"}
	PostUnsaved  = Notice{LevelInfo, "Unsaved!", "Post Unsaved Successfully!"}
	PostDeleted  = Notice{LevelSuccess, "Deleted!", "Post Deleted Successfully!"}
	VideoCreated = Notice{LevelSuccess, "Success", "Post Successfully Added!"}
)

// For picks the notice for a failed operation. Known provider messages get
// their own notice; anything else gets Generic.
func For(err error) Notice {
	if err == nil {
		return Notice{}
	}
	if errors.Is(err, model.ErrMissingFields) {
		return FieldsRequired
	}

	switch model.ProviderMessage(err) {
	case model.MsgRateLimit:
		return RateLimited
	case model.MsgInvalidEmail:
		return InvalidEmail
	case model.MsgInvalidCredentials:
		return InvalidCredentials
	case model.MsgInvalidPassword:
		return InvalidPassword
	}
	return Generic
}

// Error is For with the error text as detail for unrecognised failures,
// the way item actions report them.
func Error(err error) Notice {
	n := For(err)
	if n == Generic && err != nil {
		return Notice{LevelError, "Error", err.Error()}
	}
	return n
}
