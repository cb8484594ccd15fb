// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package bomhttp implements the repository server's HTTP surface:
// routing, per-method gating, content negotiation, and the typed
// error → status code mapping below. Handlers hold no state of their
// own beyond the store, codec matrix (stateless), and metadata
// service they are constructed with.
package bomhttp

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bomrepo/bom-repo-server/internal/bom"
	"github.com/bomrepo/bom-repo-server/internal/bomcodec"
	"github.com/bomrepo/bom-repo-server/internal/bomstore"
	"github.com/bomrepo/bom-repo-server/internal/negotiate"
	"github.com/bomrepo/bom-repo-server/internal/repoconfig"
	"github.com/bomrepo/bom-repo-server/internal/repository"
)

// maxBodyBytes bounds the size of a POSTed BOM document. CycloneDX
// documents for large dependency trees can run into the tens of
// megabytes; 64MiB comfortably covers that without leaving the
// handler open to unbounded memory use from a hostile client.
const maxBodyBytes = 64 << 20

// Handler builds the repository server's top-level http.Handler.
type Handler struct {
	store  *bomstore.Store
	meta   *repository.Service
	config repoconfig.Config
	logger *slog.Logger
	mux    *http.ServeMux
}

// New constructs the routed handler. config gates which methods are
// enabled; meta may be nil if no metadata tracking is wired (tests
// exercising the store in isolation don't need it).
func New(store *bomstore.Store, meta *repository.Service, config repoconfig.Config, logger *slog.Logger) *Handler {
	h := &Handler{store: store, meta: meta, config: config, logger: logger, mux: http.NewServeMux()}
	h.mux.HandleFunc("/bom", h.handleBOM)
	h.mux.HandleFunc("/bom/serials", h.handleSerials)
	h.mux.HandleFunc("/bom/versions", h.handleVersions)
	h.mux.HandleFunc("/bom/stats", h.handleStats)
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// allowHeader returns the comma-joined list of enabled methods, for
// the Allow header on a 405 response.
func (h *Handler) allowHeader() string {
	var methods []string
	if h.config.AllowedMethods.Get {
		methods = append(methods, http.MethodGet)
	}
	if h.config.AllowedMethods.Post {
		methods = append(methods, http.MethodPost)
	}
	if h.config.AllowedMethods.Delete {
		methods = append(methods, http.MethodDelete)
	}
	return strings.Join(methods, ", ")
}

func (h *Handler) methodAllowed(method string) bool {
	switch method {
	case http.MethodGet:
		return h.config.AllowedMethods.Get
	case http.MethodPost:
		return h.config.AllowedMethods.Post
	case http.MethodDelete:
		return h.config.AllowedMethods.Delete
	default:
		return false
	}
}

func (h *Handler) handleBOM(w http.ResponseWriter, r *http.Request) {
	if !h.methodAllowed(r.Method) {
		h.writeMethodNotAllowed(w)
		return
	}
	switch r.Method {
	case http.MethodGet:
		h.handleGet(w, r)
	case http.MethodPost:
		h.handlePost(w, r)
	case http.MethodDelete:
		h.handleDelete(w, r)
	default:
		h.writeMethodNotAllowed(w)
	}
}

func (h *Handler) writeMethodNotAllowed(w http.ResponseWriter) {
	if allow := h.allowHeader(); allow != "" {
		w.Header().Set("Allow", allow)
	}
	http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
}

// handleGet implements GET /bom?serialNumber=…&version=…[&original=true].
func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	serialNumber := r.URL.Query().Get("serialNumber")
	versionParam := r.URL.Query().Get("version")
	wantOriginal := r.URL.Query().Get("original") == "true"

	var entry bomstore.Entry
	var err error
	if versionParam == "" {
		entry, err = h.store.RetrieveLatest(serialNumber)
	} else {
		version, verr := strconv.Atoi(versionParam)
		if verr != nil || version <= 0 {
			h.writeError(w, &bomstore.Error{Kind: bomstore.InvalidVersion, SerialNumber: serialNumber,
				Err: fmt.Errorf("version %q is not a positive integer", versionParam)})
			return
		}
		entry, err = h.store.RetrieveOriginal(serialNumber, version)
	}
	if err != nil {
		h.writeError(w, err)
		return
	}

	storedSchemaVersion := entry.SchemaVersion
	if storedSchemaVersion == "" {
		storedSchemaVersion = decodedSchemaVersion(entry.Format)
	}

	if wantOriginal {
		w.Header().Set("Content-Type", canonicalContentType(entry.Format, storedSchemaVersion))
		w.WriteHeader(http.StatusOK)
		w.Write(entry.Original)
		return
	}

	selection, err := negotiate.NegotiateGet(r.Header.Get("Accept"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	value, err := bomcodec.Decode(entry.Original, entry.Format, storedSchemaVersion)
	if err != nil {
		h.writeError(w, err)
		return
	}

	encoded, err := bomcodec.Encode(value, selection.Format, selection.SchemaVersion)
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", selection.ContentType())
	w.WriteHeader(http.StatusOK)
	w.Write(encoded)
}

// handlePost implements POST /bom.
func (h *Handler) handlePost(w http.ResponseWriter, r *http.Request) {
	selection, err := negotiate.NegotiatePost(r.Header.Get("Content-Type"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		http.Error(w, "reading request body", http.StatusBadRequest)
		return
	}
	if len(body) > maxBodyBytes {
		http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
		return
	}

	value, err := bomcodec.Decode(body, selection.Format, selection.SchemaVersion)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if value.SerialNumber == "" {
		h.writeError(w, &bomstore.Error{Kind: bomstore.InvalidSerialNumber, Err: fmt.Errorf("document has no serial number")})
		return
	}

	entry := bomstore.Entry{SerialNumber: value.SerialNumber, Format: selection.Format, SchemaVersion: selection.SchemaVersion, Original: body}
	version, err := h.store.Store(entry)
	if err != nil {
		h.writeError(w, err)
		return
	}

	if h.meta != nil {
		if err := h.meta.RecordSubmission(value.SerialNumber, selection.SchemaVersion, time.Now().UTC()); err != nil {
			h.logger.Warn("recording submission metadata failed", "serial", value.SerialNumber, "error", err)
		}
	}

	location := fmt.Sprintf("/bom?serialNumber=%s&version=%d", value.SerialNumber, version)
	w.Header().Set("Location", location)
	w.WriteHeader(http.StatusCreated)
	h.logger.Info("stored bom", "serial", value.SerialNumber, "version", version, "format", selection.Format)
}

// handleDelete implements DELETE /bom?serialNumber=…[&version=…].
func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	serialNumber := r.URL.Query().Get("serialNumber")
	versionParam := r.URL.Query().Get("version")

	if versionParam == "" {
		if len(listVersionsOrEmpty(h.store, serialNumber)) == 0 {
			// No matching serial: deleting nothing is treated as success
			// rather than NotFound, so repeated deletes are idempotent.
			w.WriteHeader(http.StatusNoContent)
			return
		}
		if err := h.store.DeleteAll(serialNumber); err != nil {
			h.writeError(w, err)
			return
		}
		h.logger.Info("deleted all versions", "serial", serialNumber)
		w.WriteHeader(http.StatusNoContent)
		return
	}

	version, err := strconv.Atoi(versionParam)
	if err != nil || version <= 0 {
		h.writeError(w, &bomstore.Error{Kind: bomstore.InvalidVersion, SerialNumber: serialNumber,
			Err: fmt.Errorf("version %q is not a positive integer", versionParam)})
		return
	}
	if err := h.store.Delete(serialNumber, version); err != nil {
		h.writeError(w, err)
		return
	}
	h.logger.Info("deleted version", "serial", serialNumber, "version", version)
	w.WriteHeader(http.StatusNoContent)
}

func listVersionsOrEmpty(store *bomstore.Store, serialNumber string) []int {
	versions, err := store.List(serialNumber)
	if err != nil {
		return nil
	}
	return versions
}

// handleSerials implements the supplemental GET /bom/serials.
func (h *Handler) handleSerials(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeMethodNotAllowed(w)
		return
	}
	if !h.config.AllowedMethods.Get {
		h.writeMethodNotAllowed(w)
		return
	}
	serials, err := h.store.ListAll()
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSONList(w, serials)
}

// handleVersions implements the supplemental GET
// /bom/versions?serialNumber=….
func (h *Handler) handleVersions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeMethodNotAllowed(w)
		return
	}
	if !h.config.AllowedMethods.Get {
		h.writeMethodNotAllowed(w)
		return
	}
	serialNumber := r.URL.Query().Get("serialNumber")
	versions, err := h.store.List(serialNumber)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSONIntList(w, versions)
}

// handleStats implements the supplemental GET /bom/stats.
func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeMethodNotAllowed(w)
		return
	}
	if !h.config.AllowedMethods.Get {
		h.writeMethodNotAllowed(w)
		return
	}
	if h.meta == nil {
		http.Error(w, "metadata tracking is not enabled", http.StatusNotImplemented)
		return
	}
	all := h.meta.AllStats()
	writeJSON(w, all)
}

// writeError maps a typed store/codec/negotiate error to an HTTP
// status code. Unrecognized errors become 500 with a generic body;
// the real error is logged, never sent to the client.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var storeErr *bomstore.Error
	if errors.As(err, &storeErr) {
		switch storeErr.Kind {
		case bomstore.InvalidSerialNumber, bomstore.InvalidVersion:
			http.Error(w, err.Error(), http.StatusBadRequest)
		case bomstore.NotFound:
			http.Error(w, "not found", http.StatusNotFound)
		case bomstore.AlreadyExists:
			http.Error(w, "already exists", http.StatusConflict)
		case bomstore.StorageFailure:
			h.logger.Error("storage failure", "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
		default:
			h.logger.Error("unmapped store error", "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
		return
	}

	var codecErr *bomcodec.Error
	if errors.As(err, &codecErr) {
		switch codecErr.Kind {
		case bomcodec.DecodeFailure:
			http.Error(w, err.Error(), http.StatusBadRequest)
		case bomcodec.UnsupportedFormatVersion:
			http.Error(w, err.Error(), http.StatusNotAcceptable)
		default:
			h.logger.Error("unmapped codec error", "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
		return
	}

	var negotiateErr *negotiate.Error
	if errors.As(err, &negotiateErr) {
		switch negotiateErr.Kind {
		case negotiate.NotAcceptable:
			http.Error(w, err.Error(), http.StatusNotAcceptable)
		case negotiate.UnsupportedMediaType:
			http.Error(w, err.Error(), http.StatusUnsupportedMediaType)
		default:
			h.logger.Error("unmapped negotiate error", "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
		return
	}

	h.logger.Error("unmapped error", "error", err)
	http.Error(w, "internal error", http.StatusInternalServerError)
}

// decodedSchemaVersion is the fallback used for entries committed
// before the schema-version sidecar existed: assume the format's
// highest supported version, the most permissive guess.
func decodedSchemaVersion(format bom.Format) bom.SchemaVersion {
	versions := bomcodec.SupportedVersions(format)
	if len(versions) == 0 {
		return bom.Latest()
	}
	return versions[len(versions)-1]
}

func writeJSON(w http.ResponseWriter, value any) {
	w.Header().Set("Content-Type", "application/json")
	data, err := json.Marshal(value)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func writeJSONList(w http.ResponseWriter, values []string) {
	if values == nil {
		values = []string{}
	}
	writeJSON(w, values)
}

func writeJSONIntList(w http.ResponseWriter, values []int) {
	if values == nil {
		values = []int{}
	}
	writeJSON(w, values)
}

func canonicalContentType(format bom.Format, schemaVersion bom.SchemaVersion) string {
	switch format {
	case bom.FormatXML:
		return fmt.Sprintf("application/vnd.cyclonedx+xml; version=%s", schemaVersion)
	case bom.FormatJSON:
		return fmt.Sprintf("application/vnd.cyclonedx+json; version=%s", schemaVersion)
	case bom.FormatProtobuf:
		return fmt.Sprintf("application/x.vnd.cyclonedx+protobuf; version=%s", schemaVersion)
	default:
		return "application/octet-stream"
	}
}
