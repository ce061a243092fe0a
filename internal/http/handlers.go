package http

import (
	"context"
	"net/http"
	"time"

	"finsheets/internal/api"
	"finsheets/internal/core"
	"finsheets/internal/log"
	"finsheets/internal/sheets"

	"github.com/go-chi/chi/v5"
)

const readyTimeout = 2 * time.Second

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, api.HealthResponse{Status: "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	p, ok := s.store.(sheets.Pinger)
	if !ok {
		writeJSON(w, http.StatusOK, api.HealthResponse{Status: "ok"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()
	if err := p.Ping(ctx); err != nil {
		log.FromContext(ctx).WarnContext(ctx, "Readiness check failed", log.FieldError, err)
		writeJSON(w, http.StatusServiceUnavailable, api.HealthResponse{Status: "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, api.HealthResponse{Status: "ok"})
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.")
}

// GET /sheets?password=
func (s *Server) handleListSheets(w http.ResponseWriter, r *http.Request) {
	password := r.URL.Query().Get("password")
	if password == "" {
		writeError(w, http.StatusBadRequest, "Password required")
		return
	}
	tenant := core.Credential(password).Tenant()

	if s.sheetsCache != nil {
		if cached, ok := s.sheetsCache.Get(string(tenant)); ok {
			writeJSON(w, http.StatusOK, cached)
			return
		}
	}

	list, err := s.store.ListSheets(r.Context(), tenant)
	if err != nil {
		respondError(w, r, log.OpList, err)
		return
	}

	resp := api.NewSheetsResponse(list)
	if s.sheetsCache != nil {
		s.sheetsCache.Set(string(tenant), resp)
	}
	writeJSON(w, http.StatusOK, resp)
}

// POST /sheets
func (s *Server) handleCreateSheet(w http.ResponseWriter, r *http.Request) {
	var req api.CreateSheetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, log.OpCreate, err)
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, r, log.OpCreate, err)
		return
	}

	ns := req.ToNewSheet()
	sheet, err := s.store.CreateSheet(r.Context(), ns)
	if err != nil {
		respondError(w, r, log.OpCreate, err)
		return
	}
	s.invalidateTenant(ns.Tenant)

	log.FromContext(r.Context()).InfoContext(r.Context(), "Sheet created",
		log.NewFields().WithSheet(sheet.ID).WithTenant(ns.Tenant).ToSlice()...)
	writeJSON(w, http.StatusOK, api.NewSheetResponse(sheet))
}

// DELETE /sheets/{id}?password=
func (s *Server) handleDeleteSheet(w http.ResponseWriter, r *http.Request) {
	password := r.URL.Query().Get("password")
	if password == "" {
		writeError(w, http.StatusBadRequest, "Password required")
		return
	}
	tenant := core.Credential(password).Tenant()
	id := chi.URLParam(r, "id")

	if err := s.store.DeleteSheet(r.Context(), id, tenant); err != nil {
		respondError(w, r, log.OpDelete, err)
		return
	}
	s.invalidateTenant(tenant)
	writeJSON(w, http.StatusOK, api.SuccessResponse{Success: true})
}

// POST /entries
func (s *Server) handleCreateEntry(w http.ResponseWriter, r *http.Request) {
	var req api.CreateEntryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, log.OpCreate, err)
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, r, log.OpCreate, err)
		return
	}

	e, err := s.store.CreateEntry(r.Context(), req.ToNewEntry())
	if err != nil {
		respondError(w, r, log.OpCreate, err)
		return
	}
	s.invalidateAll()
	writeJSON(w, http.StatusOK, api.NewEntryResponse(e))
}

// PUT /entries overwrites every editable field.
func (s *Server) handleUpdateEntry(w http.ResponseWriter, r *http.Request) {
	var req api.UpdateEntryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, log.OpUpdate, err)
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, r, log.OpUpdate, err)
		return
	}

	e, err := s.store.UpdateEntry(r.Context(), req.ID, req.ToFields())
	if err != nil {
		respondError(w, r, log.OpUpdate, err)
		return
	}
	s.invalidateAll()
	writeJSON(w, http.StatusOK, api.NewEntryResponse(e))
}

// PATCH /entries/{id} changes only the fields present in the body.
func (s *Server) handlePatchEntry(w http.ResponseWriter, r *http.Request) {
	var req api.PatchEntryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, log.OpPatch, err)
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, r, log.OpPatch, err)
		return
	}

	e, err := s.store.PatchEntry(r.Context(), chi.URLParam(r, "id"), req.ToPatch())
	if err != nil {
		respondError(w, r, log.OpPatch, err)
		return
	}
	s.invalidateAll()
	writeJSON(w, http.StatusOK, api.NewEntryResponse(e))
}

// DELETE /entries/{id}
func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteEntry(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondError(w, r, log.OpDelete, err)
		return
	}
	s.invalidateAll()
	writeJSON(w, http.StatusOK, api.SuccessResponse{Success: true})
}

func (s *Server) invalidateTenant(tenant core.TenantKey) {
	if s.sheetsCache != nil {
		s.sheetsCache.Delete(string(tenant))
	}
}

// Entry writes carry only a sheet id, so every tenant's listing is dropped.
func (s *Server) invalidateAll() {
	if s.sheetsCache != nil {
		s.sheetsCache.Purge()
	}
}
