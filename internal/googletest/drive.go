package googletest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

// File is an uploaded file as seen by the fake.
type File struct {
	ID       string
	Name     string
	Parents  []string
	MimeType string
	Data     []byte
	Public   bool
}

// Drive fakes files.create (multipart media upload) and permissions.create.
type Drive struct {
	Server *httptest.Server

	// OmitLink drops webViewLink from create responses.
	OmitLink bool

	mu             sync.Mutex
	files          []*File
	failUpload     bool
	failPermission bool
}

// NewDrive starts a fake Drive endpoint that is closed with the test.
func NewDrive(t testing.TB) *Drive {
	t.Helper()
	d := &Drive{}
	d.Server = httptest.NewServer(http.HandlerFunc(d.handle))
	t.Cleanup(d.Server.Close)
	return d
}

// Service returns a drive client pointed at the fake.
func (d *Drive) Service(t testing.TB) *drive.Service {
	t.Helper()
	svc, err := drive.NewService(context.Background(),
		option.WithoutAuthentication(),
		option.WithEndpoint(d.Server.URL+"/"),
		option.WithHTTPClient(d.Server.Client()),
	)
	if err != nil {
		t.Fatalf("create fake drive service: %v", err)
	}
	return svc
}

// Files returns the uploaded files.
func (d *Drive) Files() []File {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]File, 0, len(d.files))
	for _, f := range d.files {
		out = append(out, *f)
	}
	return out
}

// FailUploads makes file creation answer 403.
func (d *Drive) FailUploads(fail bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failUpload = fail
}

// FailPermissions makes permission creation answer 403.
func (d *Drive) FailPermissions(fail bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failPermission = fail
}

func (d *Drive) handle(w http.ResponseWriter, r *http.Request) {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch {
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/permissions"):
		d.createPermission(w, r)
	case r.Method == http.MethodPost && strings.Contains(r.URL.Path, "/upload/") && strings.HasSuffix(r.URL.Path, "/files"):
		d.createFile(w, r)
	default:
		writeError(w, http.StatusNotFound, "unknown path "+r.URL.Path)
	}
}

func (d *Drive) createFile(w http.ResponseWriter, r *http.Request) {
	if d.failUpload {
		writeError(w, http.StatusForbidden, "upload denied")
		return
	}

	mediaType, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || !strings.HasPrefix(mediaType, "multipart/") {
		writeError(w, http.StatusBadRequest, "expected multipart upload")
		return
	}
	mr := multipart.NewReader(r.Body, params["boundary"])

	metaPart, err := mr.NextPart()
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing metadata part")
		return
	}
	var meta struct {
		Name    string   `json:"name"`
		Parents []string `json:"parents"`
	}
	if err := json.NewDecoder(metaPart).Decode(&meta); err != nil {
		writeError(w, http.StatusBadRequest, "bad metadata: "+err.Error())
		return
	}

	mediaPart, err := mr.NextPart()
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing media part")
		return
	}
	data, err := io.ReadAll(mediaPart)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	f := &File{
		ID:       fmt.Sprintf("file-%d", len(d.files)+1),
		Name:     meta.Name,
		Parents:  meta.Parents,
		MimeType: mediaPart.Header.Get("Content-Type"),
		Data:     data,
	}
	d.files = append(d.files, f)

	resp := map[string]any{"id": f.ID, "name": f.Name}
	if !d.OmitLink {
		resp["webViewLink"] = "https://drive.google.com/file/d/" + f.ID + "/view?usp=drivesdk"
	}
	writeJSON(w, resp)
}

func (d *Drive) createPermission(w http.ResponseWriter, r *http.Request) {
	if d.failPermission {
		writeError(w, http.StatusForbidden, "permission denied")
		return
	}
	var perm struct {
		Type string `json:"type"`
		Role string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&perm); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	parts := strings.Split(strings.TrimSuffix(r.URL.Path, "/permissions"), "/")
	id := parts[len(parts)-1]
	for _, f := range d.files {
		if f.ID == id {
			f.Public = perm.Type == "anyone" && perm.Role == "reader"
			writeJSON(w, map[string]any{"id": "anyoneWithLink", "type": perm.Type, "role": perm.Role})
			return
		}
	}
	writeError(w, http.StatusNotFound, "file not found: "+id)
}
