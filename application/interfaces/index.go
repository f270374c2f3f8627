package interfaces

import (
	"github.com/gin-gonic/gin"
)

// ApplicationContext carries a parsed request body and per-request context
// data from the middleware layer into controllers.
type ApplicationContext[T interface{}] struct {
	Ctx  *gin.Context
	Body *T
	Keys map[string]any
}

func (ac *ApplicationContext[T]) GetContextData(key string) any {
	if ac.Keys == nil {
		return nil
	}
	return ac.Keys[key]
}

func (ac *ApplicationContext[T]) GetStringContextData(key string) string {
	value, ok := ac.GetContextData(key).(string)
	if !ok {
		return ""
	}
	return value
}

func (ac *ApplicationContext[T]) GetHeader(key string) string {
	return ac.Ctx.GetHeader(key)
}

func (ac *ApplicationContext[T]) SetContextData(key string, value any) {
	if ac.Keys == nil {
		ac.Keys = map[string]any{}
	}
	ac.Keys[key] = value
}
