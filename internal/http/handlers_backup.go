package http

import (
	"errors"
	"io"
	"net/http"
	"time"

	"abone/internal/backup"
	"abone/internal/log"
)

func (s *Server) backupStores() backup.Stores {
	return backup.Stores{
		Subscriptions: s.store,
		Cards:         s.store,
		Settings:      s.store,
	}
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	doc, err := backup.Export(r.Context(), s.backupStores(), time.Now())
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	data, err := doc.Marshal()
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="abone-backup.json"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)

	s.logger.InfoContext(r.Context(), "backup exported",
		log.FieldOperation, log.OpExport, log.FieldCount, len(doc.Subscriptions))
}

// handleImport restores a backup file. Validation failures map to 4xx with
// the user-facing message; the stores are only touched after the whole
// document passes.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	doc, err := backup.Import(r.Context(), s.backupStores(), raw)
	if err != nil {
		var berr *backup.Error
		if errors.As(err, &berr) {
			writeJSON(w, importStatus(berr.Code), apiError{
				Error: berr.Message(),
				Code:  string(berr.Code),
			})
			return
		}
		s.writeStoreError(w, r, err)
		return
	}

	s.invalidate()
	s.logger.InfoContext(r.Context(), "backup imported",
		log.FieldOperation, log.OpImport, log.FieldCount, len(doc.Subscriptions))
	writeJSON(w, http.StatusOK, map[string]any{
		"subscriptions": len(doc.Subscriptions),
		"cards":         len(doc.Cards),
	})
}

func importStatus(code backup.Code) int {
	switch code {
	case backup.CodeVersionMismatch:
		return http.StatusConflict
	case backup.CodeInvalidFormat:
		return http.StatusBadRequest
	default:
		return http.StatusUnprocessableEntity
	}
}
