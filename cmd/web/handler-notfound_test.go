package main

import (
	"bytes"
	"net/http"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func Test_application_notFound(t *testing.T) {
	ctx := t.Context()
	server := startServer(t)
	client := server.Client()

	for _, path := range []string{"/nonexistent", "/main.css/", "/heatmap/muscles/"} {
		resp, err := client.Get(ctx, path)
		if err != nil {
			t.Fatalf("Failed to get %s: %v", path, err)
		}
		_ = resp.Body.Close()
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("status of %s = %d, want 404", path, resp.StatusCode)
		}
	}

	status, body, err := client.GetBody(ctx, "/nonexistent")
	if err != nil {
		t.Fatalf("Failed to get body: %v", err)
	}
	if status != http.StatusNotFound {
		t.Errorf("status = %d, want 404", status)
	}
	page, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		t.Fatalf("Failed to parse page: %v", err)
	}
	if h1 := page.Find("h1").Text(); h1 != "404" {
		t.Errorf("h1 = %q, want 404", h1)
	}
	if h2 := page.Find("h2").Text(); h2 != "Page Not Found" {
		t.Errorf("h2 = %q, want Page Not Found", h2)
	}
	if href := page.Find(`main a:contains("Go Home")`).AttrOr("href", ""); href != "/" {
		t.Errorf("home link = %q", href)
	}
}
