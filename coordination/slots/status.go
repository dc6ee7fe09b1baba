package slots

import (
	"errors"
	"io"
	"net/http"

	"bounded-buffer/coordination/slots/application"
	"bounded-buffer/coordination/slots/domain"
)

// StatusHandler expõe as contagens atuais do coordenador (lidas sob o guard).
//
// Resposta: "name=/buf capacity=10 empty=7 filled=3" + headers X-Slots-*.
// Depois de Destroy responde 503.
func StatusHandler(c *application.Coordinator) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}
		if c == nil {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
			return
		}

		empty, filled, err := c.Counts(r.Context())
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, domain.ErrPrecondition) || errors.Is(err, domain.ErrSynchronization) {
				status = http.StatusServiceUnavailable
			}
			http.Error(w, http.StatusText(status), status)
			return
		}

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("X-Slots-Capacity", formatInt(c.Capacity()))
		w.Header().Set("X-Slots-Empty", formatInt(empty))
		w.Header().Set("X-Slots-Filled", formatInt(filled))
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodHead {
			return
		}
		_, _ = io.WriteString(w, "name="+c.Name()+
			" capacity="+formatInt(c.Capacity())+
			" empty="+formatInt(empty)+
			" filled="+formatInt(filled)+"\n")
	})
}
