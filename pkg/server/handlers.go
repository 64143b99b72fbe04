package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"image"
	"io"
	"mime"
	"net/http"
	"path"

	"go.uber.org/zap"

	"picshield/pkg/raster"
	"picshield/pkg/store"
)

func (s *Server) upload(w http.ResponseWriter, r *http.Request) {
	if s.cfg.MaxUpload > 0 {
		if r.ContentLength > int64(s.cfg.MaxUpload) {
			s.fail(w, http.StatusRequestEntityTooLarge, "file too large", nil)
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, int64(s.cfg.MaxUpload))
	}

	f, hdr, err := r.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.Is(err, http.ErrMissingFile):
			s.fail(w, http.StatusBadRequest, "no file uploaded", nil)
		case errors.As(err, &tooLarge):
			s.fail(w, http.StatusRequestEntityTooLarge, "file too large", err)
		default:
			s.fail(w, http.StatusBadRequest, "bad upload", err)
		}
		return
	}
	defer func() {
		_ = f.Close()
	}()

	bs, err := io.ReadAll(f)
	if err != nil {
		s.fail(w, http.StatusBadRequest, "read upload failed", err)
		return
	}

	name, err := s.st.SaveUpload(hdr.Filename, bs)
	if err != nil {
		s.fail(w, http.StatusInternalServerError, "store upload failed", err)
		return
	}
	defer func() {
		if err := s.st.RemoveUpload(name); err != nil {
			s.log.With(zap.String("name", name), zap.Error(err)).Info("remove upload failed")
		}
	}()

	_, format, err := image.DecodeConfig(bytes.NewReader(bs))
	if err != nil {
		s.fail(w, http.StatusBadRequest, "unsupported image", err)
		return
	}

	out, err := s.p.Protect(bs)
	if err != nil {
		s.fail(w, http.StatusInternalServerError, "processing failed", err)
		return
	}

	outName := raster.FileName(name, raster.OutputFormat(format))
	if err := s.st.WriteProcessed(outName, out); err != nil {
		s.fail(w, http.StatusInternalServerError, "store result failed", err)
		return
	}

	s.log.With(zap.String("name", outName), zap.String("format", format)).Info("image protected")

	writeJSON(w, http.StatusOK, UploadResponse{
		Message:  "image protected",
		Filename: outName,
		Path:     "/processed/" + outName,
	})
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	names, err := s.st.List()
	if err != nil {
		s.fail(w, http.StatusInternalServerError, "list images failed", err)
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, names)
}

func (s *Server) processed(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("filename")

	bs, ok := s.read(w, name)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", contentType(name, bs))
	_, _ = w.Write(bs)
}

func (s *Server) download(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("filename")

	bs, ok := s.read(w, name)
	if !ok {
		return
	}

	out, err := s.p.Watermark(bs)
	if err != nil {
		s.fail(w, http.StatusInternalServerError, "watermark failed", err)
		return
	}

	w.Header().Set("Content-Type", contentType(name, out))
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	_, _ = w.Write(out)
}

func (s *Server) read(w http.ResponseWriter, name string) ([]byte, bool) {
	bs, err := s.st.ReadProcessed(name)
	switch {
	case err == nil:
		return bs, true
	case errors.Is(err, store.ErrNotFound):
		s.fail(w, http.StatusNotFound, "image not found", nil)
	case errors.Is(err, store.ErrInvalidName):
		s.fail(w, http.StatusBadRequest, "invalid file name", err)
	default:
		s.fail(w, http.StatusInternalServerError, "read image failed", err)
	}
	return nil, false
}

func (s *Server) fail(w http.ResponseWriter, status int, msg string, err error) {
	resp := ErrorResponse{Error: msg}
	if err != nil {
		resp.Details = err.Error()
		s.log.With(zap.Int("status", status), zap.Error(err)).Info(msg)
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func contentType(name string, bs []byte) string {
	if ct := mime.TypeByExtension(path.Ext(name)); ct != "" {
		return ct
	}
	return http.DetectContentType(bs)
}
