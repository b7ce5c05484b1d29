// Author: momentics <momentics@gmail.com>
package server

import "github.com/corehttpd/corehttpd/api"

// SetRequestHandler binds or unbinds (handler == nil) a plain request
// handler at pattern (spec §6 "set_request_handler").
func (ctx *Context) SetRequestHandler(pattern string, handler api.RequestHandler) {
	ctx.registry.Set(api.Binding{Pattern: pattern, Kind: api.KindRequest, Request: handler})
}

// SetAuthHandler binds or unbinds (handler == nil) an authorization
// handler at pattern (spec §6 "set_auth_handler", §4.3).
func (ctx *Context) SetAuthHandler(pattern string, handler api.AuthHandler) {
	ctx.registry.Set(api.Binding{Pattern: pattern, Kind: api.KindAuth, Auth: handler})
}

// SetWebSocketHandler binds or unbinds a full WebSocket handler set at
// pattern (spec §6 "set_websocket_handler"). All four callbacks may be nil
// independently; supplying none of connect/ready/data/close removes the
// binding.
func (ctx *Context) SetWebSocketHandler(pattern string, connect api.WSConnectHandler, ready api.WSReadyHandler, data api.WSDataHandler, close api.WSCloseHandler) {
	ctx.registry.Set(api.Binding{
		Pattern: pattern,
		Kind:    api.KindWebSocket,
		Connect: connect,
		Ready:   ready,
		Data:    data,
		Close:   close,
	})
}
