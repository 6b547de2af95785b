package main

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/google/uuid"
	"github.com/skip2/go-qrcode"
)

const qrSize = 256

// controllerURL is the page a phone opens to drive session sid
func controllerURL(r *http.Request, sid string) string {
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	u := url.URL{
		Scheme:   scheme,
		Host:     r.Host,
		Path:     "/",
		RawQuery: url.Values{"ctrl": {sid}}.Encode(),
	}
	return u.String()
}

// PairingQR renders the controller link for sid as a PNG
func PairingQR(r *http.Request, sid string) ([]byte, error) {
	if _, err := uuid.Parse(sid); err != nil {
		return nil, fmt.Errorf("bad session id: %w", err)
	}
	return qrcode.Encode(controllerURL(r, sid), qrcode.Medium, qrSize)
}

func handleQR(sessions *SessionManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sid := r.URL.Query().Get("sid")
		png, err := PairingQR(r, sid)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if sessions.GetSession(sid) == nil {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "no-store")
		w.Write(png)
	}
}
