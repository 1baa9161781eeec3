package app

import (
	"github.com/gorilla/mux"
)

// RegisterRoutes registers all API endpoints.
func RegisterRoutes(r *mux.Router, deps *Dependencies) {

	// Sites
	r.HandleFunc("/api/site", deps.SiteHandler.CreateSite).Methods("POST")
	r.HandleFunc("/api/site", deps.SiteHandler.ListSites).Methods("GET")
	r.HandleFunc("/api/site/current", deps.SiteHandler.CurrentSite).Methods("GET")
	r.HandleFunc("/api/site/current", deps.SiteHandler.UpdateSite).Methods("PUT")
	r.HandleFunc("/api/site/current/preferences", deps.SiteHandler.SavePreferences).Methods("PUT")

	// Attendance
	r.HandleFunc("/api/attendance", deps.AttendanceHandler.ListForDate).Methods("GET")
	r.HandleFunc("/api/attendance", deps.AttendanceHandler.Mark).Methods("POST")
	r.HandleFunc("/api/attendance/market", deps.AttendanceHandler.SetMarketAttendance).Methods("PUT")
	r.HandleFunc("/api/attendance/{id:[0-9]+}/time", deps.AttendanceHandler.UpdateTimes).Methods("PUT")
	r.HandleFunc("/api/attendance/{id:[0-9]+}/workunit", deps.AttendanceHandler.ApplyWorkUnit).Methods("PUT")
	r.HandleFunc("/api/attendance/{id:[0-9]+}", deps.AttendanceHandler.Delete).Methods("DELETE")
	r.HandleFunc("/api/workunit/preset", deps.AttendanceHandler.ListPresets).Methods("GET")

	// Tea shop
	r.HandleFunc("/api/teashop", deps.TeaShopHandler.Open).Methods("GET")
	r.HandleFunc("/api/teashop", deps.TeaShopHandler.Save).Methods("PUT")
	r.HandleFunc("/api/teashop", deps.TeaShopHandler.Delete).Methods("DELETE")
	r.HandleFunc("/api/teashop/distribute", deps.TeaShopHandler.Distribute).Methods("POST")
	r.HandleFunc("/api/teashop/reconcile", deps.TeaShopHandler.Reconcile).Methods("POST")

	// Settlement
	r.HandleFunc("/api/settlement", deps.SettlementHandler.Record).Methods("POST")
	r.HandleFunc("/api/settlement", deps.SettlementHandler.List).Methods("GET")
	r.HandleFunc("/api/settlement/statement", deps.SettlementHandler.Statement).Methods("GET")
	r.HandleFunc("/api/settlement/{id:[0-9]+}", deps.SettlementHandler.Get).Methods("GET")
	r.HandleFunc("/api/settlement/{id:[0-9]+}", deps.SettlementHandler.Delete).Methods("DELETE")
}
