package handlers

import "net/http"

// Routes groups the API handlers. Google and Maintenance may be nil.
type Routes struct {
	Shops        *ShopHandler
	Availability *AvailabilityHandler
	Booking      *BookingHandler
	Google       *GoogleAuthHandler
	Maintenance  *MaintenanceHandler
	Static       http.Handler
}

func Register(mux *http.ServeMux, rt Routes) {
	mux.HandleFunc("/api/health", Health)
	mux.HandleFunc("/api/ping", Ping)
	mux.HandleFunc("/api/shops", rt.Shops.Collection)
	mux.HandleFunc("/api/shops/{id}", rt.Shops.Get)
	mux.HandleFunc("/api/shops/{id}/availability", rt.Availability.Get)
	mux.HandleFunc("/api/appointments", rt.Booking.Book)
	if rt.Google != nil {
		mux.HandleFunc("/api/auth/google", rt.Google.Start)
		mux.HandleFunc("/api/auth/google/callback", rt.Google.Callback)
	}
	if rt.Maintenance != nil {
		mux.Handle("/api/maintenance", rt.Maintenance)
	}
	mux.HandleFunc("/api/", APINotFound)
	if rt.Static != nil {
		mux.Handle("/", rt.Static)
	}
}
