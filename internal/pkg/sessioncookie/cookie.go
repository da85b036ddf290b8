package sessioncookie

import (
	"net/http"
	"time"
)

// Name é o nome do cookie de sessão.
const Name = "session"

// Set grava o cookie de sessão com os atributos exigidos: HttpOnly (JS não
// lê), SameSite=Lax (mitigação de CSRF), Secure quando servido sobre TLS,
// Max-Age igual ao TTL da sessão.
func Set(w http.ResponseWriter, token string, ttl time.Duration, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     Name,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(ttl.Seconds()),
	})
}

// Clear expira o cookie de sessão no cliente (Max-Age negativo).
func Clear(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     Name,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

// Read extrai o token de sessão da requisição. Ausência de cookie não é
// erro: retorna string vazia.
func Read(r *http.Request) string {
	cookie, err := r.Cookie(Name)
	if err != nil {
		return ""
	}
	return cookie.Value
}
