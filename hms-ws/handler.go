package hmsws

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Handler upgrades HTTP requests to chat connections.
type Handler struct {
	Controller *Controller
	Logger     zerolog.Logger
	TokenParam string
	Client     ClientConfig

	upgrader websocket.Upgrader
}

func NewHandler(controller *Controller, logger zerolog.Logger) *Handler {
	h := &Handler{
		Controller: controller,
		Logger:     logger,
		TokenParam: WSOpts.TokenParam,
		Client: ClientConfig{
			SendBuffer:     WSOpts.SendBuffer,
			MaxMessageSize: int64(WSOpts.MaxMessageSize),
			WriteWait:      WSOpts.WriteWait,
			PongWait:       WSOpts.PongWait,
			PingInterval:   WSOpts.PingInterval,
		},
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(splitOrigins(WSOpts.AllowedOrigins)),
	}
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	param := h.TokenParam
	if param == "" {
		param = "token"
	}
	token := req.URL.Query().Get(param)

	ws, err := h.upgrader.Upgrade(w, req, nil)
	if err != nil {
		h.Logger.Debug().Err(err).Str("remote", req.RemoteAddr).Msg("upgrade failed")
		return
	}

	var (
		ctx    = h.Logger.WithContext(req.Context())
		client = NewClient(ws, h.Client, h.Logger)
	)
	session, err := h.Controller.Open(ctx, client, token)
	if err != nil {
		return
	}

	client.Start()
	client.ReadPump(func(frame []byte) {
		_ = h.Controller.HandleFrame(ctx, session, frame)
	})
	h.Controller.Close(ctx, session)
}

func splitOrigins(s string) []string {
	var out []string
	for _, o := range strings.Split(s, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, strings.TrimSuffix(o, "/"))
		}
	}
	return out
}

// originChecker allows the listed origins; "*" or an empty list allows any.
// Requests without an Origin header come from non-browser clients and are
// allowed.
func originChecker(allowed []string) func(*http.Request) bool {
	set := map[string]struct{}{}
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[strings.ToLower(o)] = struct{}{}
	}
	if len(set) == 0 {
		return func(*http.Request) bool { return true }
	}
	return func(req *http.Request) bool {
		origin := req.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		_, ok := set[strings.ToLower(u.Scheme+"://"+u.Host)]
		return ok
	}
}
