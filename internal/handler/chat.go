package handler

import (
	"log/slog"
	"net/http"

	"chatbot/internal/domain"
	"chatbot/internal/domain/models"
	llmSvc "chatbot/internal/domain/services/llm"
	"chatbot/internal/handler/sse"
	"chatbot/internal/httputil"
)

// ChatHandler handles chat HTTP requests
// Handlers only communicate with services, never repositories
type ChatHandler struct {
	chatService      llmSvc.ChatService
	streamingService llmSvc.StreamingService
	sseConfig        *sse.Config
	logger           *slog.Logger
}

// NewChatHandler creates a new chat handler
func NewChatHandler(
	chatService llmSvc.ChatService,
	streamingService llmSvc.StreamingService,
	sseConfig *sse.Config,
	logger *slog.Logger,
) *ChatHandler {
	if sseConfig == nil {
		sseConfig = sse.DefaultConfig()
	}
	return &ChatHandler{
		chatService:      chatService,
		streamingService: streamingService,
		sseConfig:        sseConfig,
		logger:           logger,
	}
}

// PostChat starts a generation and streams it back
// POST /api/chat
func (h *ChatHandler) PostChat(w http.ResponseWriter, r *http.Request) {
	var req llmSvc.ChatRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		badBody(w, err)
		return
	}

	// The service validates the body before checking the session.
	req.Session = httputil.GetSession(r)
	req.RequestID = httputil.GetRequestID(r)
	req.Geo = geoFrom(r)

	gen, err := h.streamingService.StartGeneration(r.Context(), &req)
	if err != nil {
		handleError(w, r, err, domain.SurfaceChat, h.logger)
		return
	}
	defer gen.Chunks.Close()

	h.streamChunks(w, r, gen)
}

// DeleteChat deletes a chat and its messages
// DELETE /api/chat?id=
func (h *ChatHandler) DeleteChat(w http.ResponseWriter, r *http.Request) {
	id, ok := requireParam(w, r.URL.Query().Get("id"), "id")
	if !ok {
		return
	}
	session, ok := requireSession(w, r, domain.SurfaceChat)
	if !ok {
		return
	}

	chat, err := h.chatService.DeleteChat(r.Context(), session.UserID, id)
	if err != nil {
		handleError(w, r, err, domain.SurfaceChat, h.logger)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]string{"id": chat.ExternalID})
}

// GetChat returns a chat with its messages
// GET /api/chat/{id}
func (h *ChatHandler) GetChat(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r, domain.SurfaceChat)
	if !ok {
		return
	}

	chat, err := h.chatService.GetChat(r.Context(), session, r.PathValue("id"))
	if err != nil {
		handleError(w, r, err, domain.SurfaceChat, h.logger)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, chat)
}

// UpdateVisibility changes a chat's visibility
// PATCH /api/chat/{id}/visibility
func (h *ChatHandler) UpdateVisibility(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r, domain.SurfaceChat)
	if !ok {
		return
	}

	var req struct {
		Visibility models.Visibility `json:"visibility"`
	}
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		badBody(w, err)
		return
	}

	id := r.PathValue("id")
	if err := h.chatService.UpdateVisibility(r.Context(), session.UserID, id, req.Visibility); err != nil {
		handleError(w, r, err, domain.SurfaceChat, h.logger)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]string{"id": id, "visibility": string(req.Visibility)})
}

// ResumeStream replays the latest stream of a chat
// GET /api/chat/{id}/stream
// Responds 204 when resumable streams are not configured.
func (h *ChatHandler) ResumeStream(w http.ResponseWriter, r *http.Request) {
	resumed, err := h.streamingService.ResumeStream(r.Context(), httputil.GetSession(r), r.PathValue("id"))
	if err != nil {
		handleError(w, r, err, domain.SurfaceStream, h.logger)
		return
	}
	if resumed.Disabled {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	writer, err := sse.NewStreamWriter(w)
	if err != nil {
		h.logger.Error("SSE not supported", "error", err)
		return
	}

	switch {
	case resumed.Frames != nil:
		defer resumed.Frames.Close()
		stop := h.startKeepAlive(writer)
		defer stop()

		for {
			frame, ok := resumed.Frames.Next(r.Context())
			if !ok {
				break
			}
			if err := writer.WriteFrame(frame); err != nil {
				h.logger.Debug("client left during resume", "chat_id", r.PathValue("id"), "error", err)
				return
			}
		}

	case resumed.Fallback != nil:
		frame, err := resumed.Fallback.Frame()
		if err != nil {
			h.logger.Error("failed to encode fallback chunk", "error", err)
			return
		}
		if err := writer.WriteFrame(frame); err != nil {
			return
		}
	}

	_ = writer.WriteFrame(models.DoneFrame)
}

// StopStream cancels the running generation of a chat
// DELETE /api/chat/{id}/stream
func (h *ChatHandler) StopStream(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r, domain.SurfaceChat)
	if !ok {
		return
	}

	if err := h.streamingService.StopGeneration(r.Context(), session.UserID, r.PathValue("id")); err != nil {
		handleError(w, r, err, domain.SurfaceStream, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeleteTrailingMessages removes a message and everything after it
// DELETE /api/messages/{id}/trailing
func (h *ChatHandler) DeleteTrailingMessages(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r, domain.SurfaceChat)
	if !ok {
		return
	}

	if err := h.chatService.DeleteTrailingMessages(r.Context(), session.UserID, r.PathValue("id")); err != nil {
		handleError(w, r, err, domain.SurfaceChat, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetHistory lists the user's chats newest first
// GET /api/history?limit=&starting_after=|ending_before=
func (h *ChatHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r, domain.SurfaceChat)
	if !ok {
		return
	}

	limit, err := httputil.QueryInt(r, "limit", 0)
	if err != nil {
		badBody(w, err)
		return
	}

	q := r.URL.Query()
	page, err := h.chatService.ListHistory(r.Context(), models.HistoryQuery{
		UserID:        session.UserID,
		Limit:         limit,
		StartingAfter: q.Get("starting_after"),
		EndingBefore:  q.Get("ending_before"),
	})
	if err != nil {
		handleError(w, r, err, domain.SurfaceHistory, h.logger)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, page)
}

// GetVotes lists the votes of a chat
// GET /api/vote?chatId=
func (h *ChatHandler) GetVotes(w http.ResponseWriter, r *http.Request) {
	chatID, ok := requireParam(w, r.URL.Query().Get("chatId"), "chatId")
	if !ok {
		return
	}
	session, ok := requireSession(w, r, domain.SurfaceVote)
	if !ok {
		return
	}

	votes, err := h.chatService.ListVotes(r.Context(), session.UserID, chatID)
	if err != nil {
		handleError(w, r, err, domain.SurfaceVote, h.logger)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, votes)
}

// Vote records a vote on a message
// POST|PATCH /api/vote
func (h *ChatHandler) Vote(w http.ResponseWriter, r *http.Request) {
	var req llmSvc.VoteRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		badBody(w, err)
		return
	}
	session, ok := requireSession(w, r, domain.SurfaceVote)
	if !ok {
		return
	}

	if err := h.chatService.Vote(r.Context(), session.UserID, &req); err != nil {
		handleError(w, r, err, domain.SurfaceVote, h.logger)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]string{"message": "Message voted"})
}

// streamChunks forwards a generation to the client until it finishes or the
// client disconnects. The generation keeps running after a disconnect.
func (h *ChatHandler) streamChunks(w http.ResponseWriter, r *http.Request, gen *llmSvc.Generation) {
	writer, err := sse.NewStreamWriter(w)
	if err != nil {
		h.logger.Error("SSE not supported", "error", err)
		return
	}

	stop := h.startKeepAlive(writer)
	defer stop()

	for {
		chunk, ok := gen.Chunks.Next(r.Context())
		if !ok {
			break
		}
		frame, err := chunk.Frame()
		if err != nil {
			h.logger.Error("failed to encode chunk", "type", chunk.Type, "error", err)
			continue
		}
		if err := writer.WriteFrame(frame); err != nil {
			h.logger.Info("client disconnected, generation continues",
				"chat_id", gen.ChatID,
				"stream_id", gen.StreamID,
			)
			return
		}
	}

	if r.Context().Err() == nil {
		_ = writer.WriteFrame(models.DoneFrame)
	}
}

func (h *ChatHandler) startKeepAlive(writer *sse.StreamWriter) func() {
	return sse.StartKeepAlive(writer, h.sseConfig.KeepAliveInterval, h.logger).Stop
}

// geoFrom reads the location hints set by the edge proxy.
func geoFrom(r *http.Request) llmSvc.Geo {
	return llmSvc.Geo{
		Latitude:  r.Header.Get("X-Vercel-IP-Latitude"),
		Longitude: r.Header.Get("X-Vercel-IP-Longitude"),
		City:      r.Header.Get("X-Vercel-IP-City"),
		Country:   r.Header.Get("X-Vercel-IP-Country"),
	}
}
