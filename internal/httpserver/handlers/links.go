package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/memento/internal/httpserver/deps"
	"github.com/MrSnakeDoc/memento/internal/linker"
)

// originalLinks resolves the TimeMap and TimeGate URLs of original through
// the named routes. timegate is empty when TimeGate links are disabled.
func originalLinks(d deps.Deps, r *http.Request, original string) (timemapURL, timegateURL string, err error) {
	timemapURL, err = d.Linker.URL(r, linker.RouteTimeMap, original)
	if err != nil {
		return "", "", err
	}
	if !d.IncludeTimeGate {
		return timemapURL, "", nil
	}
	timegateURL, err = d.Linker.URL(r, linker.RouteTimeGate, original)
	if err != nil {
		return "", "", err
	}
	return timemapURL, timegateURL, nil
}
