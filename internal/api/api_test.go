package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/halvard/othala/internal/markdown"
	"github.com/halvard/othala/internal/noteservice"
	"github.com/halvard/othala/internal/testutil"
	"github.com/halvard/othala/internal/webclip"
)

// testEnv sets up a temp SQLite store, service, and router for testing.
// An empty token means disabled auth mode.
func testEnv(t *testing.T, authToken string) (*noteservice.Service, http.Handler) {
	t.Helper()
	db := testutil.TestDB(t)
	svc := noteservice.NewService(db, nil)
	router := NewRouter(svc, markdown.NewRenderer(), webclip.New(), authToken != "", authToken, nil)
	return svc, router
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCreateAndGetNote(t *testing.T) {
	_, router := testEnv(t, "")

	w := doJSON(t, router, http.MethodPost, "/notes", map[string]string{
		"title":   "Hello",
		"content": "see [[World]]",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", w.Code, w.Body.String())
	}
	var created NoteDetail
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}
	if created.ID == "" || created.Title != "Hello" {
		t.Errorf("created = %+v", created)
	}
	if len(created.MissingLinks) != 1 || created.MissingLinks[0] != "World" {
		t.Errorf("missing_links = %v", created.MissingLinks)
	}

	w = doJSON(t, router, http.MethodGet, "/notes/"+created.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}
	var got NoteDetail
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.Content != "see [[World]]" {
		t.Errorf("content = %q", got.Content)
	}
}

func TestCreateNote_Validation(t *testing.T) {
	_, router := testEnv(t, "")

	if w := doJSON(t, router, http.MethodPost, "/notes", map[string]string{"title": "   "}); w.Code != http.StatusBadRequest {
		t.Errorf("blank title status = %d", w.Code)
	}

	doJSON(t, router, http.MethodPost, "/notes", map[string]string{"title": "Dup"})
	if w := doJSON(t, router, http.MethodPost, "/notes", map[string]string{"title": "Dup"}); w.Code != http.StatusConflict {
		t.Errorf("duplicate title status = %d", w.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/notes", strings.NewReader("{not json"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("malformed body status = %d", w.Code)
	}
}

func TestUpdateNote(t *testing.T) {
	_, router := testEnv(t, "")

	w := doJSON(t, router, http.MethodPost, "/notes", map[string]string{"title": "Target"})
	var created NoteDetail
	json.Unmarshal(w.Body.Bytes(), &created)

	w = doJSON(t, router, http.MethodPatch, "/notes/"+created.ID, map[string]string{
		"title":   "Renamed",
		"content": "updated",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("patch status = %d, body = %s", w.Code, w.Body.String())
	}
	var updated NoteDetail
	json.Unmarshal(w.Body.Bytes(), &updated)
	if updated.Title != "Renamed" || updated.Content != "updated" {
		t.Errorf("updated = %+v", updated)
	}

	if w := doJSON(t, router, http.MethodPatch, "/notes/"+created.ID, map[string]string{}); w.Code != http.StatusBadRequest {
		t.Errorf("empty patch status = %d", w.Code)
	}
	if w := doJSON(t, router, http.MethodPatch, "/notes/nope", map[string]string{"content": "x"}); w.Code != http.StatusNotFound {
		t.Errorf("unknown id status = %d", w.Code)
	}
}

func TestDeleteNote(t *testing.T) {
	_, router := testEnv(t, "")

	w := doJSON(t, router, http.MethodPost, "/notes", map[string]string{"title": "Doomed"})
	var created NoteDetail
	json.Unmarshal(w.Body.Bytes(), &created)

	if w := doJSON(t, router, http.MethodDelete, "/notes/"+created.ID, nil); w.Code != http.StatusNoContent {
		t.Errorf("delete status = %d", w.Code)
	}
	if w := doJSON(t, router, http.MethodGet, "/notes/"+created.ID, nil); w.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d", w.Code)
	}
	if w := doJSON(t, router, http.MethodDelete, "/notes/"+created.ID, nil); w.Code != http.StatusNotFound {
		t.Errorf("double delete status = %d", w.Code)
	}
}

func TestListNotes_FilterAndPaging(t *testing.T) {
	_, router := testEnv(t, "")

	for _, title := range []string{"Go Basics", "Go Advanced", "Cooking"} {
		doJSON(t, router, http.MethodPost, "/notes", map[string]string{"title": title})
	}

	w := doJSON(t, router, http.MethodGet, "/notes?q=Go", nil)
	var list NoteListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatal(err)
	}
	if list.Total != 2 || len(list.Notes) != 2 {
		t.Errorf("filtered list = %+v", list)
	}

	w = doJSON(t, router, http.MethodGet, "/notes?limit=1", nil)
	json.Unmarshal(w.Body.Bytes(), &list)
	if list.Total != 3 || len(list.Notes) != 1 {
		t.Errorf("paged list = %+v", list)
	}
}

func TestPreview_RendersWikilinks(t *testing.T) {
	_, router := testEnv(t, "")
	doJSON(t, router, http.MethodPost, "/notes", map[string]string{"title": "Known"})

	w := doJSON(t, router, http.MethodPost, "/notes/preview", map[string]string{
		"text": "see [[Known]] and [[Unknown]]",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("preview status = %d", w.Code)
	}
	var resp PreviewResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(resp.HTML, `data-wikilink="Known"`) {
		t.Errorf("existing target lost marker: %s", resp.HTML)
	}
	if !strings.Contains(resp.HTML, `data-wikilink="Unknown"`) || !strings.Contains(resp.HTML, `class="missing"`) {
		t.Errorf("missing target not marked: %s", resp.HTML)
	}
}

func TestCapture_SuffixesDuplicateTitles(t *testing.T) {
	_, router := testEnv(t, "")

	w := doJSON(t, router, http.MethodPost, "/capture", map[string]string{})
	if w.Code != http.StatusCreated {
		t.Fatalf("capture status = %d", w.Code)
	}
	var first NoteDetail
	json.Unmarshal(w.Body.Bytes(), &first)
	if first.Title != "Untitled" {
		t.Errorf("title = %q", first.Title)
	}

	w = doJSON(t, router, http.MethodPost, "/capture", map[string]string{"content": "again"})
	var second NoteDetail
	json.Unmarshal(w.Body.Bytes(), &second)
	if second.Title != "Untitled (2)" {
		t.Errorf("title = %q", second.Title)
	}
}

func TestImportURL(t *testing.T) {
	page := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head><title>Imported Page</title></head><body><p>text body</p></body></html>`))
	}))
	defer page.Close()

	_, router := testEnv(t, "")
	w := doJSON(t, router, http.MethodPost, "/notes/import", map[string]string{"url": page.URL})
	if w.Code != http.StatusCreated {
		t.Fatalf("import status = %d, body = %s", w.Code, w.Body.String())
	}
	var note NoteDetail
	json.Unmarshal(w.Body.Bytes(), &note)
	if note.Title != "Imported Page" || !strings.Contains(note.Content, "text body") {
		t.Errorf("note = %+v", note)
	}

	if w := doJSON(t, router, http.MethodPost, "/notes/import", map[string]string{"url": "ftp://nope"}); w.Code != http.StatusBadRequest {
		t.Errorf("bad scheme status = %d", w.Code)
	}
}

func TestTitlesAndGraph(t *testing.T) {
	_, router := testEnv(t, "")

	doJSON(t, router, http.MethodPost, "/notes", map[string]string{"title": "A", "content": "see [[B]]"})
	doJSON(t, router, http.MethodPost, "/notes", map[string]string{"title": "B"})
	// Re-save A so the link to B is resolved now that B exists.
	w := doJSON(t, router, http.MethodGet, "/notes?q=A", nil)
	var list NoteListResponse
	json.Unmarshal(w.Body.Bytes(), &list)
	doJSON(t, router, http.MethodPatch, "/notes/"+list.Notes[0].ID, map[string]string{"content": "see [[B]]"})

	w = doJSON(t, router, http.MethodGet, "/titles", nil)
	var titles TitlesResponse
	if err := json.Unmarshal(w.Body.Bytes(), &titles); err != nil {
		t.Fatal(err)
	}
	if len(titles.Titles) != 2 {
		t.Errorf("titles = %v", titles.Titles)
	}

	w = doJSON(t, router, http.MethodGet, "/graph", nil)
	var graph GraphResponse
	if err := json.Unmarshal(w.Body.Bytes(), &graph); err != nil {
		t.Fatal(err)
	}
	if len(graph.Nodes) != 2 || len(graph.Links) != 1 {
		t.Errorf("graph = %+v", graph)
	}
}

func TestAuthMiddleware(t *testing.T) {
	_, router := testEnv(t, "sekrit")

	req := httptest.NewRequest(http.MethodGet, "/notes", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("no token status = %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/notes", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token status = %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/notes", nil)
	req.Header.Set("Authorization", "Bearer sekrit")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("valid token status = %d", w.Code)
	}
}
