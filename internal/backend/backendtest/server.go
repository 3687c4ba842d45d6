package backendtest

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/go-chi/chi/v5"
	"gitlab.com/yelinaung/finance-bot/internal/backend"
	"gitlab.com/yelinaung/finance-bot/internal/models"
)

// NewServer serves f over HTTP using the backend's REST routes. The server
// is closed when the test ends.
func NewServer(t *testing.T, f *Fake) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(f.Router())
	t.Cleanup(srv.Close)
	return srv
}

// Router returns the REST routes of the fake.
func (f *Fake) Router() http.Handler {
	r := chi.NewRouter()

	r.Route("/api/life-xp/buckets", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			v, err := f.ListBuckets(r.Context())
			respond(w, http.StatusOK, v, err)
		})
		r.Post("/", func(w http.ResponseWriter, r *http.Request) {
			var in models.BucketInput
			if decode(w, r, &in) {
				v, err := f.CreateBucket(r.Context(), in)
				respond(w, http.StatusCreated, v, err)
			}
		})
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", func(w http.ResponseWriter, r *http.Request) {
				v, err := f.GetBucket(r.Context(), param(r, "id"))
				respond(w, http.StatusOK, v, err)
			})
			r.Put("/", func(w http.ResponseWriter, r *http.Request) {
				var in models.BucketInput
				if decode(w, r, &in) {
					v, err := f.UpdateBucket(r.Context(), param(r, "id"), in)
					respond(w, http.StatusOK, v, err)
				}
			})
			r.Delete("/", func(w http.ResponseWriter, r *http.Request) {
				noContent(w, f.DeleteBucket(r.Context(), param(r, "id")))
			})
			r.Post("/contributions", func(w http.ResponseWriter, r *http.Request) {
				var in models.ContributionInput
				if decode(w, r, &in) {
					v, err := f.AddContribution(r.Context(), param(r, "id"), in)
					respond(w, http.StatusCreated, v, err)
				}
			})
			r.Put("/history/{entryID}", func(w http.ResponseWriter, r *http.Request) {
				var in models.HistoryInput
				if decode(w, r, &in) {
					v, err := f.UpdateBucketHistory(r.Context(), param(r, "id"), param(r, "entryID"), in)
					respond(w, http.StatusOK, v, err)
				}
			})
			r.Delete("/history/{entryID}", func(w http.ResponseWriter, r *http.Request) {
				v, err := f.DeleteBucketHistory(r.Context(), param(r, "id"), param(r, "entryID"))
				respond(w, http.StatusOK, v, err)
			})
		})
	})

	r.Route("/api/plans", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			v, err := f.ListPlans(r.Context())
			respond(w, http.StatusOK, v, err)
		})
		r.Post("/", func(w http.ResponseWriter, r *http.Request) {
			var in models.PlanInput
			if decode(w, r, &in) {
				v, err := f.CreatePlan(r.Context(), in)
				respond(w, http.StatusCreated, v, err)
			}
		})
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", func(w http.ResponseWriter, r *http.Request) {
				v, err := f.GetPlan(r.Context(), param(r, "id"))
				respond(w, http.StatusOK, v, err)
			})
			r.Put("/", func(w http.ResponseWriter, r *http.Request) {
				var in models.PlanInput
				if decode(w, r, &in) {
					v, err := f.UpdatePlan(r.Context(), param(r, "id"), in)
					respond(w, http.StatusOK, v, err)
				}
			})
			r.Delete("/", func(w http.ResponseWriter, r *http.Request) {
				noContent(w, f.DeletePlan(r.Context(), param(r, "id")))
			})
			r.Post("/payments", func(w http.ResponseWriter, r *http.Request) {
				var in models.PaymentInput
				if decode(w, r, &in) {
					v, err := f.PayPremium(r.Context(), param(r, "id"), in)
					respond(w, http.StatusCreated, v, err)
				}
			})
			r.Post("/history", func(w http.ResponseWriter, r *http.Request) {
				var in models.HistoryInput
				if decode(w, r, &in) {
					v, err := f.AddPlanHistory(r.Context(), param(r, "id"), in)
					respond(w, http.StatusCreated, v, err)
				}
			})
			r.Put("/history/{entryID}", func(w http.ResponseWriter, r *http.Request) {
				var in models.HistoryInput
				if decode(w, r, &in) {
					v, err := f.UpdatePlanHistory(r.Context(), param(r, "id"), param(r, "entryID"), in)
					respond(w, http.StatusOK, v, err)
				}
			})
			r.Delete("/history/{entryID}", func(w http.ResponseWriter, r *http.Request) {
				v, err := f.DeletePlanHistory(r.Context(), param(r, "id"), param(r, "entryID"))
				respond(w, http.StatusOK, v, err)
			})
		})
	})

	r.Get("/api/accounts", func(w http.ResponseWriter, r *http.Request) {
		v, err := f.ListAccounts(r.Context())
		respond(w, http.StatusOK, v, err)
	})
	r.Post("/api/accounts/{id}/history", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Records []models.BalanceRecord `json:"records"`
		}
		if decode(w, r, &body) {
			v, err := f.AddBalanceHistory(r.Context(), param(r, "id"), body.Records)
			respond(w, http.StatusCreated, v, err)
		}
	})

	return r
}

func param(r *http.Request, name string) int64 {
	id, _ := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	return id
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return false
	}
	return true
}

func respond(w http.ResponseWriter, status int, v any, err error) {
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, status, v)
}

func noContent(w http.ResponseWriter, err error) {
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) {
		status = apiErr.StatusCode
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
