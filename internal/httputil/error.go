package httputil

import (
	"log/slog"
	"net/http"
)

// fail logs the failure and answers with body. Server side failures are
// errors, client side ones warnings.
func fail(w http.ResponseWriter, status int, msg, body string, err error) {
	attrs := []any{"status", status, "message", msg}
	if err != nil {
		attrs = append(attrs, "error", err)
	}
	if status >= http.StatusInternalServerError {
		slog.Error("request failed", attrs...)
	} else {
		slog.Warn("request failed", attrs...)
	}
	http.Error(w, body, status)
}

// InternalServerError hides msg from the client.
func InternalServerError(w http.ResponseWriter, msg string, err error) {
	fail(w, http.StatusInternalServerError, msg, "Internal Server Error", err)
}

func BadRequest(w http.ResponseWriter, msg string, err error) {
	fail(w, http.StatusBadRequest, msg, msg, err)
}

func NotFound(w http.ResponseWriter, msg string, err error) {
	fail(w, http.StatusNotFound, msg, msg, err)
}

// BadGateway reports a failed call to the Tosurnament API.
func BadGateway(w http.ResponseWriter, msg string, err error) {
	fail(w, http.StatusBadGateway, msg, msg, err)
}

func IsHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") != ""
}

// Redirect lets htmx requests follow the redirect with a full page load.
func Redirect(w http.ResponseWriter, r *http.Request, url string) {
	if IsHTMX(r) {
		w.Header().Set("HX-Redirect", url)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, url, http.StatusSeeOther)
}
