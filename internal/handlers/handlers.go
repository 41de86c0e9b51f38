package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"

	"diabetes-diary/internal/alert"
	"diabetes-diary/internal/diary"
	"diabetes-diary/internal/ical"
	"diabetes-diary/internal/patient"
	"diabetes-diary/internal/scheduler"
	"diabetes-diary/internal/storage"

	"github.com/gorilla/mux"
)

var (
	Store *storage.Facade
	Sched *scheduler.Scheduler
)

// Alert Handlers

func CreateAlertHandler(w http.ResponseWriter, r *http.Request) {
	var a alert.Alert
	if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		log.Printf("%s %s %s %d - Bad Request: %v", r.Method, r.URL.Path, r.UserAgent(), http.StatusBadRequest, err)
		return
	}
	a.Enabled = true
	a.NextTime = 0 // scheduler-owned, never taken from the client
	if _, _, err := a.TimeOfDay(); err != nil && a.Time != "" {
		http.Error(w, "invalid time format, expected HH:MM", http.StatusBadRequest)
		log.Printf("%s %s %s %d - Bad Request: %v", r.Method, r.URL.Path, r.UserAgent(), http.StatusBadRequest, err)
		return
	}
	if _, err := Store.CreateAlert(&a); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if Sched != nil {
		Sched.Wake()
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(a)
	log.Printf("%s %s %s %d", r.Method, r.URL.Path, r.UserAgent(), http.StatusCreated)
}

func ListAlertsHandler(w http.ResponseWriter, r *http.Request) {
	list, err := Store.ListAlerts()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if list == nil {
		list = []*alert.Alert{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(list)
	log.Printf("%s %s %s %d", r.Method, r.URL.Path, r.UserAgent(), http.StatusOK)
}

func GetAlertHandler(w http.ResponseWriter, r *http.Request) {
	id, err := alertID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	a, err := Store.GetAlert(id)
	if err != nil {
		http.NotFound(w, r)
		log.Printf("%s %s %s %d", r.Method, r.URL.Path, r.UserAgent(), http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(a)
	log.Printf("%s %s %s %d", r.Method, r.URL.Path, r.UserAgent(), http.StatusOK)
}

func UpdateAlertHandler(w http.ResponseWriter, r *http.Request) {
	id, err := alertID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var a alert.Alert
	if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		log.Printf("%s %s %s %d - Bad Request: %v", r.Method, r.URL.Path, r.UserAgent(), http.StatusBadRequest, err)
		return
	}
	a.ID = id
	if err := Store.UpdateAlert(&a); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if Sched != nil {
		Sched.Wake()
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(a)
	log.Printf("%s %s %s %d", r.Method, r.URL.Path, r.UserAgent(), http.StatusOK)
}

func DeleteAlertHandler(w http.ResponseWriter, r *http.Request) {
	id, err := alertID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := Store.DeleteAlert(id); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
	log.Printf("%s %s %s %d", r.Method, r.URL.Path, r.UserAgent(), http.StatusNoContent)
}

// ExportAlertsHandler returns every alert as one .ics calendar document.
func ExportAlertsHandler(w http.ResponseWriter, r *http.Request) {
	list, err := Store.ListAlerts()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	doc, err := ical.Encode(list)
	if err != nil {
		if errors.Is(err, ical.ErrNoAlerts) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			log.Printf("%s %s %s %d", r.Method, r.URL.Path, r.UserAgent(), http.StatusBadRequest)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeCalendar(w, "alerts.ics", doc)
	log.Printf("%s %s %s %d", r.Method, r.URL.Path, r.UserAgent(), http.StatusOK)
}

// ExportAlertHandler returns a single alert as an .ics calendar document.
func ExportAlertHandler(w http.ResponseWriter, r *http.Request) {
	id, err := alertID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	a, err := Store.GetAlert(id)
	if err != nil {
		http.NotFound(w, r)
		log.Printf("%s %s %s %d", r.Method, r.URL.Path, r.UserAgent(), http.StatusNotFound)
		return
	}
	doc, err := ical.EncodeOne(a)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeCalendar(w, fmt.Sprintf("alert-%d.ics", id), doc)
	log.Printf("%s %s %s %d", r.Method, r.URL.Path, r.UserAgent(), http.StatusOK)
}

// WakeSchedulerHandler is posted by the page on visibilitychange so a
// throttled background tab catches up immediately.
func WakeSchedulerHandler(w http.ResponseWriter, r *http.Request) {
	if Sched != nil {
		Sched.Wake()
	}
	w.WriteHeader(http.StatusNoContent)
	log.Printf("%s %s %s %d", r.Method, r.URL.Path, r.UserAgent(), http.StatusNoContent)
}

// Patient Handlers

func GetPatientHandler(w http.ResponseWriter, r *http.Request) {
	p, err := Store.LoadPatient()
	if err != nil {
		http.NotFound(w, r)
		log.Printf("%s %s %s %d", r.Method, r.URL.Path, r.UserAgent(), http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(p)
	log.Printf("%s %s %s %d", r.Method, r.URL.Path, r.UserAgent(), http.StatusOK)
}

func SavePatientHandler(w http.ResponseWriter, r *http.Request) {
	var p patient.Profile
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		log.Printf("%s %s %s %d - Bad Request: %v", r.Method, r.URL.Path, r.UserAgent(), http.StatusBadRequest, err)
		return
	}
	if err := Store.SavePatient(&p); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(p)
	log.Printf("%s %s %s %d", r.Method, r.URL.Path, r.UserAgent(), http.StatusOK)
}

// Day Record Handlers

func GetDayHandler(w http.ResponseWriter, r *http.Request) {
	date := mux.Vars(r)["date"]
	d, err := Store.LoadDay(date)
	if err != nil {
		http.NotFound(w, r)
		log.Printf("%s %s %s %d", r.Method, r.URL.Path, r.UserAgent(), http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(d)
	log.Printf("%s %s %s %d", r.Method, r.URL.Path, r.UserAgent(), http.StatusOK)
}

func SaveDayHandler(w http.ResponseWriter, r *http.Request) {
	date := mux.Vars(r)["date"]
	var d diary.DayRecord
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		log.Printf("%s %s %s %d - Bad Request: %v", r.Method, r.URL.Path, r.UserAgent(), http.StatusBadRequest, err)
		return
	}
	d.Date = date
	if err := Store.SaveDay(&d); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(d)
	log.Printf("%s %s %s %d", r.Method, r.URL.Path, r.UserAgent(), http.StatusOK)
}

func ListDaysHandler(w http.ResponseWriter, r *http.Request) {
	list, err := Store.ListDays()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if list == nil {
		list = []*diary.DayRecord{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(list)
	log.Printf("%s %s %s %d", r.Method, r.URL.Path, r.UserAgent(), http.StatusOK)
}

// Backup Handlers

func BackupHandler(w http.ResponseWriter, r *http.Request) {
	b, err := Store.Export()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="diabetes_backup.json"`)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(b)
	log.Printf("%s %s %s %d", r.Method, r.URL.Path, r.UserAgent(), http.StatusOK)
}

func RestoreHandler(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		log.Printf("%s %s %s %d - Bad Request: %v", r.Method, r.URL.Path, r.UserAgent(), http.StatusBadRequest, err)
		return
	}
	b, err := storage.ParseBackup(body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		log.Printf("%s %s %s %d - Bad Request: %v", r.Method, r.URL.Path, r.UserAgent(), http.StatusBadRequest, err)
		return
	}
	if err := Store.Import(b); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if Sched != nil {
		Sched.Wake()
	}
	w.WriteHeader(http.StatusNoContent)
	log.Printf("%s %s %s %d", r.Method, r.URL.Path, r.UserAgent(), http.StatusNoContent)
}

func alertID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid alert id")
	}
	return id, nil
}

func writeCalendar(w http.ResponseWriter, filename, doc string) {
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	io.WriteString(w, doc)
}
