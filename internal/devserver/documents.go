package devserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"aorify/internal/httputil"
	"aorify/internal/model"
)

// document is a stored document with its system attributes, as served.
type document map[string]interface{}

const msgDocumentNotFound = "Document with the requested ID could not be found."

// toDocument merges the stored data with the system attributes.
func (s *Server) toDocument(row *documentRow) (document, error) {
	d := document{}
	if err := json.Unmarshal([]byte(row.Data), &d); err != nil {
		return nil, fmt.Errorf("decode document %s: %w", row.ID, err)
	}
	d["$id"] = row.ID
	d["$collectionId"] = row.CollectionID
	d["$databaseId"] = s.opts.DatabaseID
	d["$createdAt"] = row.CreatedAt
	d["$updatedAt"] = row.UpdatedAt
	d["$permissions"] = []string{}
	return d, nil
}

// expand replaces relationship ids with the related documents. A dangling
// reference becomes null.
func (s *Server) expand(ctx context.Context, collectionID string, d document) error {
	for attr, related := range s.opts.Relationships[collectionID] {
		id, ok := d[attr].(string)
		if !ok || id == "" {
			continue
		}
		row, err := s.store.GetDocument(ctx, related, id)
		if errors.Is(err, errNotFound) {
			d[attr] = nil
			continue
		}
		if err != nil {
			return err
		}
		rel, err := s.toDocument(row)
		if err != nil {
			return err
		}
		d[attr] = rel
	}
	return nil
}

type documentList struct {
	Total     int        `json:"total"`
	Documents []document `json:"documents"`
}

func (s *Server) listDocuments(w http.ResponseWriter, r *http.Request) {
	collectionID := chi.URLParam(r, "collectionId")

	q, err := parseListQuery(r.URL.Query()["queries[]"])
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, typeQueryInvalid, "Invalid query: "+err.Error())
		return
	}

	rows, err := s.store.ListDocuments(r.Context(), collectionID)
	if err != nil {
		log.WithError(err).Error("list documents")
		httputil.WriteInternalError(w)
		return
	}

	docs := make([]document, 0, len(rows))
	for i := range rows {
		d, err := s.toDocument(&rows[i])
		if err != nil {
			log.WithError(err).Error("list documents")
			httputil.WriteInternalError(w)
			return
		}
		docs = append(docs, d)
	}

	total, page := q.apply(docs)
	for _, d := range page {
		if err := s.expand(r.Context(), collectionID, d); err != nil {
			log.WithError(err).Error("expand documents")
			httputil.WriteInternalError(w)
			return
		}
	}

	httputil.WriteJSON(w, http.StatusOK, documentList{Total: total, Documents: page})
}

func (s *Server) getDocument(w http.ResponseWriter, r *http.Request) {
	collectionID := chi.URLParam(r, "collectionId")

	row, err := s.store.GetDocument(r.Context(), collectionID, chi.URLParam(r, "documentId"))
	if errors.Is(err, errNotFound) {
		httputil.WriteNotFound(w, model.TypeDocumentNotFound, msgDocumentNotFound)
		return
	}
	if err != nil {
		log.WithError(err).Error("get document")
		httputil.WriteInternalError(w)
		return
	}
	s.writeDocument(w, r, http.StatusOK, collectionID, row)
}

type createDocumentRequest struct {
	DocumentID string                 `json:"documentId" validate:"required,max=36"`
	Data       map[string]interface{} `json:"data" validate:"required"`
}

func (s *Server) createDocument(w http.ResponseWriter, r *http.Request) {
	collectionID := chi.URLParam(r, "collectionId")

	var req createDocumentRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	if req.DocumentID == "unique()" {
		req.DocumentID = uuid.NewString()
	}
	if err := s.validate.Struct(req); err != nil {
		httputil.WriteBadRequest(w, validationMessage(err))
		return
	}

	for key, v := range req.Data {
		if strings.HasPrefix(key, "$") {
			httputil.WriteError(w, http.StatusBadRequest, typeInvalidStructure, fmt.Sprintf("Invalid document structure: Unknown attribute: \"%s\"", key))
			return
		}
		// Relationships are stored by id.
		if _, isRel := s.opts.Relationships[collectionID][key]; isRel {
			if obj, ok := v.(map[string]interface{}); ok {
				req.Data[key] = obj["$id"]
			}
		}
	}

	data, err := json.Marshal(req.Data)
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid document data")
		return
	}

	row, err := s.store.CreateDocument(r.Context(), collectionID, req.DocumentID, data)
	if errors.Is(err, errExists) {
		httputil.WriteConflict(w, model.TypeDocumentAlreadyExists, "Document with the requested ID already exists.")
		return
	}
	if err != nil {
		log.WithError(err).Error("create document")
		httputil.WriteInternalError(w)
		return
	}

	log.WithFields(logrus.Fields{"collection": collectionID, "document": row.ID}).Debug("document created")
	s.writeDocument(w, r, http.StatusCreated, collectionID, row)
}

func (s *Server) deleteDocument(w http.ResponseWriter, r *http.Request) {
	collectionID := chi.URLParam(r, "collectionId")

	err := s.store.DeleteDocument(r.Context(), collectionID, chi.URLParam(r, "documentId"))
	if errors.Is(err, errNotFound) {
		httputil.WriteNotFound(w, model.TypeDocumentNotFound, msgDocumentNotFound)
		return
	}
	if err != nil {
		log.WithError(err).Error("delete document")
		httputil.WriteInternalError(w)
		return
	}
	httputil.WriteNoContent(w)
}

func (s *Server) writeDocument(w http.ResponseWriter, r *http.Request, status int, collectionID string, row *documentRow) {
	d, err := s.toDocument(row)
	if err == nil {
		err = s.expand(r.Context(), collectionID, d)
	}
	if err != nil {
		log.WithError(err).Error("render document")
		httputil.WriteInternalError(w)
		return
	}
	httputil.WriteJSON(w, status, d)
}
