package panel

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"os"
	"sort"
	"sync"

	"github.com/nerrad567/ups-monitor/internal/snapshot"
)

//go:embed web
var content embed.FS

const dashboardTemplate = "dashboard.html"

// Variable is one NUT variable as shown in a device card.
type Variable struct {
	Name  string
	Value string
}

// Device is the dashboard view of one UPS.
type Device struct {
	ID         string
	Room       string
	LastUpdate string
	Variables  []Variable
}

// View is the data handed to the dashboard template.
type View struct {
	Devices []Device

	// Error is the snapshot failure cause, empty when the poll succeeded.
	Error string

	// Detail is the raw dettaglio query value. The page script decides
	// what to do with it.
	Detail string
}

// NewView flattens snap for rendering. An error snapshot yields no devices.
func NewView(snap *snapshot.SystemSnapshot, detail string) View {
	v := View{Detail: detail}
	if snap == nil {
		return v
	}
	if snap.IsError() {
		v.Error = snap.Err()
		return v
	}

	for _, d := range snap.Devices() {
		names := make([]string, 0, len(d.Variables))
		for name := range d.Variables {
			names = append(names, name)
		}
		sort.Strings(names)

		vars := make([]Variable, 0, len(names))
		for _, name := range names {
			vars = append(vars, Variable{Name: name, Value: d.Variables[name]})
		}
		v.Devices = append(v.Devices, Device{
			ID:         d.DeviceID,
			Room:       d.RoomLabel,
			LastUpdate: d.LastUpdate.Format(snapshot.LastUpdateLayout),
			Variables:  vars,
		})
	}
	return v
}

var parseTemplate = sync.OnceValues(func() (*template.Template, error) {
	return template.ParseFS(content, "web/"+dashboardTemplate)
})

// Render writes the dashboard page for v.
func Render(w io.Writer, v View) error {
	tmpl, err := parseTemplate()
	if err != nil {
		return fmt.Errorf("parsing dashboard template: %w", err)
	}
	if err := tmpl.ExecuteTemplate(w, dashboardTemplate, v); err != nil {
		return fmt.Errorf("rendering dashboard: %w", err)
	}
	return nil
}

// Static returns an http.Handler for the dashboard's script and stylesheet,
// meant to be mounted under /static/.
//
// When dir is non-empty and exists, files are served from disk so the
// assets can be edited without a rebuild. Otherwise the embedded copy is
// used. Panics if the embedded assets are missing (build error).
func Static(dir string) http.Handler {
	var fileSystem http.FileSystem

	if dir != "" {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			fileSystem = http.Dir(dir)
		}
	}

	if fileSystem == nil {
		staticFS, err := fs.Sub(content, "web/static")
		if err != nil {
			panic(fmt.Sprintf("panel: failed to load embedded static assets: %v", err))
		}
		fileSystem = http.FS(staticFS)
	}

	fileServer := http.FileServer(fileSystem)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache, must-revalidate")
		fileServer.ServeHTTP(w, r)
	})
}
