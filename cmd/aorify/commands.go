package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"

	"aorify/internal/model"
	"aorify/internal/notice"
)

var errUsage = errors.New("invalid usage, see aorify --help")

// errReported marks a failure whose notice has already been printed.
var errReported = errors.New("reported")

var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

func (a *app) dispatch(ctx context.Context, command string, args []string) error {
	switch command {
	case "signup":
		return a.signUp(ctx, args)
	case "signin":
		return a.signIn(ctx, args)
	case "signout":
		return report(a.actions.SignOut(ctx), notice.SignedOut)
	case "whoami":
		return a.whoami()
	case "posts":
		return printPosts(a.posts.GetAllPosts(ctx))
	case "latest":
		return printPosts(a.posts.GetLatestPosts(ctx))
	case "search":
		if len(args) == 0 {
			return errUsage
		}
		return printPosts(a.posts.SearchPosts(ctx, strings.Join(args, " ")))
	case "user-posts":
		userID, err := a.userArg(args)
		if err != nil {
			return err
		}
		return printPosts(a.posts.GetUserPosts(ctx, userID))
	case "create-video":
		return a.createVideo(ctx, args)
	case "delete-video":
		if len(args) != 1 {
			return errUsage
		}
		return report(a.actions.DeleteVideo(ctx, args[0]), notice.PostDeleted)
	case "save":
		if len(args) != 1 {
			return errUsage
		}
		return report(a.actions.Save(ctx, args[0]), notice.PostSaved)
	case "unsave":
		if len(args) != 1 {
			return errUsage
		}
		return report(a.actions.Unsave(ctx, args[0]), notice.PostUnsaved)
	case "saved":
		user, err := a.signedIn()
		if err != nil {
			return err
		}
		return printPosts(a.bookmarks.GetSavedPosts(ctx, user.ID))
	case "bookmarks":
		if _, err := a.signedIn(); err != nil {
			return err
		}
		for _, id := range a.actions.State().Snapshot().Bookmarks {
			fmt.Fprintln(stdout, id)
		}
		return nil
	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

// credentials parses the flags shared by signup and signin.
func credentials(name string, args []string, withUsername bool) (email, password, username string, err error) {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.StringVar(&email, "email", "", "account email")
	fs.StringVar(&password, "password", "", "account password")
	if withUsername {
		fs.StringVar(&username, "username", "", "display name")
	}
	err = fs.Parse(args)
	return email, password, username, err
}

func (a *app) signUp(ctx context.Context, args []string) error {
	email, password, username, err := credentials("signup", args, true)
	if err != nil {
		return err
	}
	user, err := a.actions.SignUp(ctx, email, password, username)
	if err := report(err, notice.AccountMade); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "%s\t%s\t%s\n", user.ID, user.Username, user.Email)
	return nil
}

func (a *app) signIn(ctx context.Context, args []string) error {
	email, password, _, err := credentials("signin", args, false)
	if err != nil {
		return err
	}
	_, err = a.actions.SignIn(ctx, email, password)
	return report(err, notice.SignedIn)
}

func (a *app) whoami() error {
	user, err := a.signedIn()
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "%s\t%s\t%s\n", user.ID, user.Username, user.Email)
	return nil
}

func (a *app) signedIn() (*model.User, error) {
	user := a.actions.State().User()
	if user == nil {
		return nil, model.ErrNoSession
	}
	return user, nil
}

func (a *app) userArg(args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	user, err := a.signedIn()
	if err != nil {
		return "", err
	}
	return user.ID, nil
}

func (a *app) createVideo(ctx context.Context, args []string) error {
	var title, prompt, thumbnailPath, videoPath string
	fs := pflag.NewFlagSet("create-video", pflag.ContinueOnError)
	fs.StringVar(&title, "title", "", "post title")
	fs.StringVar(&prompt, "prompt", "", "AI prompt used for the video")
	fs.StringVar(&thumbnailPath, "thumbnail", "", "thumbnail image file")
	fs.StringVar(&videoPath, "video", "", "video file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	user, err := a.signedIn()
	if err != nil {
		return err
	}

	form := model.VideoForm{Title: title, Prompt: prompt, UserID: user.ID}
	if thumbnailPath != "" {
		f, upload, err := openUpload(thumbnailPath)
		if err != nil {
			return err
		}
		defer f.Close()
		form.Thumbnail = upload
	}
	if videoPath != "" {
		f, upload, err := openUpload(videoPath)
		if err != nil {
			return err
		}
		defer f.Close()
		form.Video = upload
	}

	post, err := a.posts.CreateVideo(ctx, form)
	if err := report(err, notice.VideoCreated); err != nil {
		return err
	}
	fmt.Fprintln(stdout, post.ID)
	return nil
}

func openUpload(path string) (*os.File, *model.Upload, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	return f, &model.Upload{Name: filepath.Base(path), Size: info.Size(), Body: f}, nil
}

// report prints the notice for the outcome of an operation. A failure is
// returned wrapped with errReported so it is not printed again.
func report(err error, success notice.Notice) error {
	if err != nil {
		fmt.Fprintln(stderr, notice.Error(err).String())
		return fmt.Errorf("%w: %w", errReported, err)
	}
	fmt.Fprintln(stdout, success.String())
	return nil
}

func printPosts(posts []model.Post, err error) error {
	if err != nil {
		return report(err, notice.Notice{})
	}
	for _, p := range posts {
		creator := p.Creator.ID
		if p.Creator.User != nil {
			creator = p.Creator.User.Username
		}
		fmt.Fprintf(stdout, "%s\t%s\t%s\t%s\n", p.ID, p.CreatedAt.Format("2006-01-02 15:04"), creator, p.Title)
	}
	return nil
}
