package http

import (
	"net/http"
	"strconv"
	"strings"
)

type RouterConfig struct {
	Students   *StudentHandler
	Sessions   *SessionHandler
	Catalog    *CatalogHandler
	Admin      *AdminHandler
	Metrics    http.Handler
	Middleware []func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	if cfg.Students != nil {
		mux.HandleFunc("/students", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Students.List(w, r)
			case http.MethodPost:
				cfg.Students.Create(w, r)
			case http.MethodDelete:
				cfg.Students.DeleteMany(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost, http.MethodDelete)
			}
		})
		mux.HandleFunc("/students/import", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Students.Import(w, r)
		})
		mux.HandleFunc("/students/", func(w http.ResponseWriter, r *http.Request) {
			ra := strings.TrimPrefix(r.URL.Path, "/students/")
			if ra == "" || strings.Contains(ra, "/") {
				http.NotFound(w, r)
				return
			}
			r = r.WithContext(ContextWithStudentRA(r.Context(), ra))
			switch r.Method {
			case http.MethodPatch:
				cfg.Students.Update(w, r)
			case http.MethodDelete:
				cfg.Students.Delete(w, r)
			default:
				methodNotAllowed(w, http.MethodPatch, http.MethodDelete)
			}
		})
	}

	if cfg.Catalog != nil {
		get := func(fn http.HandlerFunc) http.HandlerFunc {
			return func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodGet {
					methodNotAllowed(w, http.MethodGet)
					return
				}
				fn(w, r)
			}
		}
		mux.HandleFunc("/courses", get(cfg.Catalog.Courses))
		mux.HandleFunc("/periods", get(cfg.Catalog.Periods))
		mux.HandleFunc("/classes", get(cfg.Catalog.Classes))
		mux.HandleFunc("/rosters", get(cfg.Catalog.Rosters))
	}

	if cfg.Sessions != nil {
		mux.HandleFunc("/sessions", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Sessions.List(w, r)
			case http.MethodPost:
				cfg.Sessions.Upsert(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		})
		mux.HandleFunc("/sessions/check", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Sessions.Check(w, r)
		})
		mux.HandleFunc("/sessions/", func(w http.ResponseWriter, r *http.Request) {
			rest := strings.TrimPrefix(r.URL.Path, "/sessions/")
			rawID, action, _ := strings.Cut(rest, "/")
			if rawID == "" {
				http.NotFound(w, r)
				return
			}
			id, err := strconv.ParseInt(rawID, 10, 64)
			if err != nil {
				cfg.Sessions.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidSessionID)
				return
			}
			r = r.WithContext(ContextWithSessionID(r.Context(), id))

			switch action {
			case "":
				switch r.Method {
				case http.MethodGet:
					cfg.Sessions.Get(w, r)
				case http.MethodDelete:
					cfg.Sessions.Delete(w, r)
				default:
					methodNotAllowed(w, http.MethodGet, http.MethodDelete)
				}
			case "members":
				if r.Method != http.MethodPut {
					methodNotAllowed(w, http.MethodPut)
					return
				}
				cfg.Sessions.EditMembers(w, r)
			case "toggle-type":
				if r.Method != http.MethodPost {
					methodNotAllowed(w, http.MethodPost)
					return
				}
				cfg.Sessions.ToggleType(w, r)
			case "export":
				if r.Method != http.MethodGet {
					methodNotAllowed(w, http.MethodGet)
					return
				}
				cfg.Sessions.Export(w, r)
			default:
				http.NotFound(w, r)
			}
		})
	}

	if cfg.Admin != nil {
		mux.HandleFunc("/store", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodDelete {
				methodNotAllowed(w, http.MethodDelete)
				return
			}
			cfg.Admin.Clear(w, r)
		})
	}

	if cfg.Metrics != nil {
		mux.Handle("/metrics", cfg.Metrics)
	}

	var handler http.Handler = mux
	if len(cfg.Middleware) > 0 {
		for i := len(cfg.Middleware) - 1; i >= 0; i-- {
			if cfg.Middleware[i] != nil {
				handler = cfg.Middleware[i](handler)
			}
		}
	}

	return handler
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	if len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
	}
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}
