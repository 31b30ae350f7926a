// internal/controller/campaign_controller.go
package controller

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/reviewgarden/outreach-backend/internal/apperrors"
	"github.com/reviewgarden/outreach-backend/internal/model"
	"github.com/reviewgarden/outreach-backend/internal/report"
	"github.com/reviewgarden/outreach-backend/internal/service"
)

const maxUploadBytes = 10 << 20 // 10 MiB

type CampaignController struct {
	Service *service.CampaignService
	Log     zerolog.Logger
}

// CreateCampaign accepts a multipart upload: a CSV under "file" plus "name"
// and "test_mode" form fields. Fatal validation problems return 422 and
// nothing is stored.
func (c *CampaignController) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "missing csv file upload", http.StatusBadRequest)
		return
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		http.Error(w, "malformed csv: "+err.Error(), http.StatusBadRequest)
		return
	}
	if len(records) == 0 {
		http.Error(w, "csv has no header row", http.StatusUnprocessableEntity)
		return
	}

	name := r.FormValue("name")
	if name == "" {
		name = "Untitled campaign"
	}
	testMode, _ := strconv.ParseBool(r.FormValue("test_mode"))

	campaign, err := c.Service.CreateCampaign(name, testMode, records[0], records[1:])
	if err != nil {
		var schemaErr *apperrors.SchemaError
		if errors.As(err, &schemaErr) {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"error": err.Error()})
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, campaign)
}

// GetCampaign returns the campaign with its per-status stats.
func (c *CampaignController) GetCampaign(w http.ResponseWriter, r *http.Request) {
	campaign, ok := c.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"campaign": campaign,
		"stats":    campaign.Stats(),
	})
}

// DispatchCampaign runs the campaign. With a queue configured the job is
// published and 202 returned; otherwise the run happens inline and the
// report comes back in the response.
func (c *CampaignController) DispatchCampaign(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := c.Service.EnqueueDispatch(id); err == nil {
		writeJSON(w, http.StatusAccepted, map[string]any{"campaign_id": id, "status": "queued"})
		return
	}

	rep, err := c.Service.Dispatch(r.Context(), id)
	if err != nil {
		var notFound *apperrors.ErrCampaignNotFound
		var cfgErr *apperrors.ConfigError
		switch {
		case errors.As(err, &notFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		case errors.As(err, &cfgErr):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			http.Error(w, err.Error(), http.StatusConflict)
		}
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// GetReport returns the dispatch report, as JSON or as the row-per-recipient
// CSV when ?format=csv is given.
func (c *CampaignController) GetReport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rep, err := c.Service.Report(id)
	if err != nil {
		var notFound *apperrors.ErrCampaignNotFound
		if errors.As(err, &notFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}

	if r.URL.Query().Get("format") == "csv" {
		campaign, ok := c.lookup(w, r)
		if !ok {
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "campaign-"+id+".csv"))
		if err := report.WriteRecipientCSV(w, campaign, campaign.Results); err != nil {
			c.Log.Error().Err(err).Str("campaign", id).Msg("csv export failed")
		}
		return
	}

	writeJSON(w, http.StatusOK, rep)
}

// GetSegments returns the read-only segmentation view.
func (c *CampaignController) GetSegments(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	segments, err := c.Service.Segments(id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"segments": segments})
}

// ListHistory returns recent campaign log entries.
func (c *CampaignController) ListHistory(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := c.Service.History(limit)
	if err != nil {
		http.Error(w, "failed to fetch history: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": entries})
}

// HistorySummary returns aggregates across all logged campaigns.
func (c *CampaignController) HistorySummary(w http.ResponseWriter, r *http.Request) {
	summary, err := c.Service.HistorySummary()
	if err != nil {
		http.Error(w, "failed to fetch history summary: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// InboundWebhook receives {from, body} from the provider. Recognized
// STOP/START commands return a reply to send back; anything else returns
// 204.
func (c *CampaignController) InboundWebhook(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		From string `json:"from"`
		Body string `json:"body"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if payload.From == "" {
		http.Error(w, "missing sender", http.StatusBadRequest)
		return
	}

	reply, handled := c.Service.HandleInbound(payload.From, payload.Body)
	if !handled {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"reply": reply})
}

func (c *CampaignController) lookup(w http.ResponseWriter, r *http.Request) (*model.Campaign, bool) {
	id := chi.URLParam(r, "id")
	campaign, err := c.Service.Get(id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return nil, false
	}
	return campaign, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
