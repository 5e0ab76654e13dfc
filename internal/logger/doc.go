// Package logger wraps zap for meet-desk.
//
// A global sugared logger writes to stderr in console or JSON format. The
// level is shared and can change at runtime. Services take a context and log
// through the logger stored in it (ToContext, WithName, WithKV), so every line
// carries the component name and the contest being worked on. WithMinLevel
// narrows one context, which keeps client commands quiet.
package logger
