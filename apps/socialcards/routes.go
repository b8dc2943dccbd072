package socialcards

import (
	"fmt"
	"net/http"
)

func (app *SocialCards) Routes(prefix string, mux *http.ServeMux) {
	mux.HandleFunc(fmt.Sprintf("GET /%s/weekly", prefix), app.weeklyHandler)
	mux.HandleFunc(fmt.Sprintf("GET /%s/monthly", prefix), app.monthlyHandler)
	mux.HandleFunc(fmt.Sprintf("GET /%s/event/{id}", prefix), app.eventHandler)
}
