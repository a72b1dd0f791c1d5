package devserver

import (
	"fmt"
	"html"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

func (s *Server) fetchCart(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string `json:"userId"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := requireOwner(r, req.UserID); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"cartItems": s.store.Cart(req.UserID)})
}

func (s *Server) increase(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID    string `json:"userId"`
		ProductID string `json:"productId"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := requireOwner(r, req.UserID); err != nil {
		writeError(w, err)
		return
	}

	if err := s.store.Increase(req.UserID, req.ProductID); err != nil {
		writeError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "Cart updated")
}

func (s *Server) decrease(w http.ResponseWriter, r *http.Request) {
	var req Decrease
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := requireOwner(r, req.UserID); err != nil {
		writeError(w, err)
		return
	}

	if err := s.store.Decrease(req); err != nil {
		writeError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "Cart updated")
}

func (s *Server) checkout(w http.ResponseWriter, r *http.Request) {
	var req Checkout
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := requireOwner(r, req.UserID); err != nil {
		writeError(w, err)
		return
	}

	ref, err := s.store.StartCheckout(req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"payment_ref": ref})
}

// pay stands in for the external payment page: visiting it settles the
// payment and links back to the app.
func (s *Server) pay(w http.ResponseWriter, r *http.Request) {
	p, err := s.store.Pay(chi.URLParam(r, "ref"))
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = fmt.Fprintf(w, `<p>Paid %s for %s.</p><p><a href="%s">Return to the app</a></p>`+"\n",
		strconv.FormatFloat(p.Total, 'f', 2, 64), html.EscapeString(p.Narration), html.EscapeString(p.SuccessURL))
}
