// Package service is the data-access layer: app-level operations composed
// from platform calls. Services hold no state of their own.
package service

import (
	"context"
	"regexp"
	"slices"

	"aorify/internal/config"
	"aorify/internal/logging"
	"aorify/internal/remote"
)

var log = logging.For("service")

// Collections names the platform resources the services read and write.
type Collections struct {
	Users      string
	Videos     string
	SavedPosts string
	Bucket     string
}

func CollectionsFromConfig(cfg *config.Config) Collections {
	return Collections{
		Users:      cfg.UserCollectionID,
		Videos:     cfg.VideoCollectionID,
		SavedPosts: cfg.SavedPostsCollectionID,
		Bucket:     cfg.StorageID,
	}
}

// IDGenerator produces new document and file ids.
type IDGenerator func() string

func orDefault(gen IDGenerator) IDGenerator {
	if gen == nil {
		return remote.UniqueID
	}
	return gen
}

var fileIDPattern = regexp.MustCompile(`files/([^/?]+)`)

// fileIDFromURL extracts the storage file id from a view or preview URL.
// It returns "" when the URL does not address a stored file.
func fileIDFromURL(u string) string {
	m := fileIDPattern.FindStringSubmatch(u)
	if m == nil {
		return ""
	}
	return m[1]
}

// listPageSize is the number of documents requested per page by listAll.
const listPageSize = 100

// listAll pages through a listing until every matching document is read.
func listAll(ctx context.Context, db remote.DatabaseAPI, collectionID string, queries []string) (*remote.DocumentList, error) {
	all := &remote.DocumentList{}
	for {
		paged := append(slices.Clone(queries), remote.Limit(listPageSize), remote.Offset(len(all.Documents)))
		list, err := db.ListDocuments(ctx, collectionID, paged)
		if err != nil {
			return nil, err
		}
		all.Total = list.Total
		all.Documents = append(all.Documents, list.Documents...)
		if len(list.Documents) < listPageSize || len(all.Documents) >= list.Total {
			return all, nil
		}
	}
}
