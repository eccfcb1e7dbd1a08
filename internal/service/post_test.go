package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aorify/internal/model"
	"aorify/internal/remote"
)

func newPosts(db *mockDatabase, storage *mockStorage) *PostService {
	return NewPostService(db, storage, testCollections, sequentialIDs())
}

func upload(name string) *model.Upload {
	return &model.Upload{Name: name, Body: strings.NewReader("data")}
}

func TestPostService_ListQueries(t *testing.T) {
	db := &mockDatabase{}
	svc := newPosts(db, &mockStorage{})
	ctx := context.Background()

	_, err := svc.GetAllPosts(ctx)
	require.NoError(t, err)
	_, err = svc.GetLatestPosts(ctx)
	require.NoError(t, err)
	_, err = svc.SearchPosts(ctx, "cats")
	require.NoError(t, err)
	_, err = svc.GetUserPosts(ctx, "u1")
	require.NoError(t, err)

	page := []string{remote.Limit(listPageSize), remote.Offset(0)}
	require.Len(t, db.listCalls, 4)
	assert.Equal(t, append([]string{remote.OrderDesc("$createdAt")}, page...), db.listCalls[0])
	assert.Equal(t, []string{remote.OrderDesc("$createdAt"), remote.Limit(7)}, db.listCalls[1])
	assert.Equal(t, append([]string{remote.Search("title", "cats")}, page...), db.listCalls[2])
	assert.Equal(t, append([]string{remote.Equal("creator", "u1"), remote.OrderDesc("$createdAt")}, page...), db.listCalls[3])
}

func TestPostService_GetAllPosts_ReadsEveryPage(t *testing.T) {
	const total = 130
	db := &mockDatabase{
		listFn: func(ctx context.Context, collectionID string, queries []string) (*remote.DocumentList, error) {
			q, err := remote.ParseQuery(queries[len(queries)-1])
			require.NoError(t, err)
			offset, err := q.IntValue()
			require.NoError(t, err)

			list := &remote.DocumentList{Total: total}
			for i := offset; i < total && i < offset+listPageSize; i++ {
				b, _ := json.Marshal(map[string]interface{}{"$id": fmt.Sprintf("p%d", i), "title": "t"})
				list.Documents = append(list.Documents, b)
			}
			return list, nil
		},
	}
	svc := newPosts(db, &mockStorage{})

	posts, err := svc.GetAllPosts(context.Background())
	require.NoError(t, err)
	require.Len(t, posts, total)
	assert.Equal(t, "p0", posts[0].ID)
	assert.Equal(t, "p129", posts[total-1].ID)

	require.Len(t, db.listCalls, 2)
	assert.Equal(t, remote.Offset(0), db.listCalls[0][len(db.listCalls[0])-1])
	assert.Equal(t, remote.Offset(listPageSize), db.listCalls[1][len(db.listCalls[1])-1])
}

func TestPostService_GetAllPosts_PageFailure(t *testing.T) {
	calls := 0
	db := &mockDatabase{
		listFn: func(ctx context.Context, collectionID string, queries []string) (*remote.DocumentList, error) {
			calls++
			if calls == 2 {
				return nil, &model.RemoteError{Code: 503, Message: "unavailable"}
			}
			list := &remote.DocumentList{Total: 2 * listPageSize}
			for i := 0; i < listPageSize; i++ {
				list.Documents = append(list.Documents, json.RawMessage(`{"$id":"p"}`))
			}
			return list, nil
		},
	}
	svc := newPosts(db, &mockStorage{})

	_, err := svc.GetAllPosts(context.Background())
	assert.ErrorIs(t, err, model.ErrRemoteService)
}

func TestPostService_ListFailure(t *testing.T) {
	db := &mockDatabase{
		listFn: func(ctx context.Context, collectionID string, queries []string) (*remote.DocumentList, error) {
			return nil, &model.RemoteError{Code: 503, Message: "unavailable"}
		},
	}
	svc := newPosts(db, &mockStorage{})

	_, err := svc.GetAllPosts(context.Background())
	assert.ErrorIs(t, err, model.ErrRemoteService)
	assert.Equal(t, "unavailable", model.ProviderMessage(err))
}

func TestPostService_FilePreview(t *testing.T) {
	svc := newPosts(&mockDatabase{}, &mockStorage{})

	u, err := svc.FilePreview("f1", model.FileKindVideo)
	require.NoError(t, err)
	assert.Contains(t, u, "/files/f1/view")

	u, err = svc.FilePreview("f1", model.FileKindImage)
	require.NoError(t, err)
	assert.Contains(t, u, "/files/f1/preview")
	assert.Contains(t, u, "width=2000&height=2000&gravity=top&quality=100")

	_, err = svc.FilePreview("f1", "audio")
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestPostService_UploadFile(t *testing.T) {
	storage := &mockStorage{}
	svc := newPosts(&mockDatabase{}, storage)

	u, err := svc.UploadFile(context.Background(), nil, model.FileKindImage)
	require.NoError(t, err)
	assert.Empty(t, u)
	assert.Empty(t, storage.created)

	_, err = svc.UploadFile(context.Background(), upload("a.txt"), "audio")
	assert.ErrorIs(t, err, model.ErrValidation)
	assert.Empty(t, storage.created)

	u, err = svc.UploadFile(context.Background(), upload("clip.mp4"), model.FileKindVideo)
	require.NoError(t, err)
	assert.Equal(t, "id-1", fileIDFromURL(u))
}

func TestPostService_CreateVideo_Success(t *testing.T) {
	db := &mockDatabase{}
	storage := &mockStorage{}
	svc := newPosts(db, storage)

	post, err := svc.CreateVideo(context.Background(), model.VideoForm{
		Title:     "Sunset",
		Prompt:    "a sunset over the sea",
		Thumbnail: upload("thumb.png"),
		Video:     upload("clip.mp4"),
		UserID:    "u1",
	})
	require.NoError(t, err)

	assert.Equal(t, "Sunset", post.Title)
	assert.Equal(t, "u1", post.Creator.ID)
	assert.Contains(t, post.Thumbnail, "/preview")
	assert.Contains(t, post.Video, "/view")
	assert.ElementsMatch(t, []string{fileIDFromURL(post.Thumbnail), fileIDFromURL(post.Video)}, storage.created)

	require.Len(t, db.createCalls, 1)
	fields := db.createCalls[0].Data.(model.PostFields)
	assert.Equal(t, "u1", fields.Creator)
}

func TestPostService_CreateVideo_MissingFields(t *testing.T) {
	storage := &mockStorage{}
	svc := newPosts(&mockDatabase{}, storage)

	_, err := svc.CreateVideo(context.Background(), model.VideoForm{Title: "x", Prompt: "y", Video: upload("v.mp4")})
	assert.ErrorIs(t, err, model.ErrMissingFields)
	assert.Empty(t, storage.created)
}

func TestPostService_CreateVideo_UploadFailureSkipsDocument(t *testing.T) {
	db := &mockDatabase{}
	storage := &mockStorage{
		createFn: func(ctx context.Context, bucketID, fileID string, u *model.Upload) (*model.File, error) {
			if u.Name == "clip.mp4" {
				return nil, &model.RemoteError{Code: 400, Type: model.TypeFileEmpty, Message: "empty"}
			}
			return &model.File{ID: fileID}, nil
		},
	}
	svc := newPosts(db, storage)

	_, err := svc.CreateVideo(context.Background(), model.VideoForm{
		Title: "t", Prompt: "p", Thumbnail: upload("thumb.png"), Video: upload("clip.mp4"), UserID: "u1",
	})
	require.Error(t, err)
	assert.Empty(t, db.createCalls)
	// the thumbnail stays behind
	assert.Len(t, storage.created, 1)
	assert.Empty(t, storage.deleted)
}

func TestPostService_DeleteVideo(t *testing.T) {
	post := model.Post{
		ID:        "p1",
		Thumbnail: "https://cloud.test/v1/storage/buckets/bucket/files/thumb-1/preview?width=2000",
		Video:     "https://cdn.example.com/files/vid-1",
	}
	db := &mockDatabase{
		getFn: func(ctx context.Context, collectionID, documentID string) (json.RawMessage, error) {
			return json.Marshal(post)
		},
	}
	storage := &mockStorage{}
	svc := newPosts(db, storage)

	require.NoError(t, svc.DeleteVideo(context.Background(), "p1"))
	assert.Equal(t, []string{"thumb-1", "vid-1"}, storage.deleted)
	assert.Equal(t, []string{"get:p1", "delete:p1"}, db.ops)
}

func TestPostService_DeleteVideo_UnmatchedURLIsSkipped(t *testing.T) {
	db := &mockDatabase{
		getFn: func(ctx context.Context, collectionID, documentID string) (json.RawMessage, error) {
			return json.Marshal(model.Post{ID: "p1", Thumbnail: "https://example.com/image.png", Video: "https://x/files/v1/view"})
		},
	}
	storage := &mockStorage{}
	svc := newPosts(db, storage)

	require.NoError(t, svc.DeleteVideo(context.Background(), "p1"))
	assert.Equal(t, []string{"v1"}, storage.deleted)
	assert.Equal(t, []string{"p1"}, db.deleteCalls)
}

func TestPostService_DeleteVideo_Errors(t *testing.T) {
	t.Run("missing post", func(t *testing.T) {
		svc := newPosts(&mockDatabase{}, &mockStorage{})
		assert.ErrorIs(t, svc.DeleteVideo(context.Background(), "nope"), model.ErrNotFound)
	})

	t.Run("file delete failure keeps document", func(t *testing.T) {
		db := &mockDatabase{
			getFn: func(ctx context.Context, collectionID, documentID string) (json.RawMessage, error) {
				return json.Marshal(model.Post{ID: "p1", Thumbnail: "https://x/files/t1/preview", Video: "https://x/files/v1/view"})
			},
		}
		storage := &mockStorage{
			deleteFn: func(ctx context.Context, bucketID, fileID string) error {
				return &model.RemoteError{Code: 500, Message: "boom"}
			},
		}
		svc := newPosts(db, storage)

		assert.Error(t, svc.DeleteVideo(context.Background(), "p1"))
		assert.Empty(t, db.deleteCalls)
	})
}

func TestFileIDFromURL(t *testing.T) {
	tests := map[string]string{
		"https://cloud.appwrite.io/v1/storage/buckets/b/files/abc123/view?project=p": "abc123",
		"https://cloud.appwrite.io/v1/storage/buckets/b/files/abc123/preview":        "abc123",
		"https://cdn.example.com/files/xyz":                                          "xyz",
		"https://cdn.example.com/images/xyz":                                         "",
		"":                                                                           "",
	}
	for in, want := range tests {
		assert.Equal(t, want, fileIDFromURL(in), in)
	}
}
