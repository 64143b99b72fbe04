package server

import "github.com/inhies/go-bytesize"

type Config struct {
	Addr      string
	MaxUpload bytesize.ByteSize
}

type UploadResponse struct {
	Message  string `json:"message"`
	Filename string `json:"filename"`
	Path     string `json:"path"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
