package handler

import "github.com/gin-gonic/gin"

// Handlers groups every HTTP handler mounted under the API prefix.
type Handlers struct {
	Auth         *AuthHandler
	Catalog      *CatalogHandler
	Enrollment   *EnrollmentHandler
	Checkout     *CheckoutHandler
	Dashboard    *DashboardHandler
	Profile      *ProfileHandler
	Certificates *CertificateHandler
	Metrics      *MetricsHandler
}

// RouteMiddleware carries the per-group middleware. Nil entries are skipped.
type RouteMiddleware struct {
	RequireAuth   gin.HandlerFunc
	OptionalAuth  gin.HandlerFunc
	AuthRateLimit gin.HandlerFunc
	EnrollAudit   gin.HandlerFunc
}

// RegisterRoutes mounts ops endpoints at the root and the API under prefix.
func RegisterRoutes(r *gin.Engine, prefix string, h Handlers, mw RouteMiddleware) {
	if h.Metrics != nil {
		r.GET("/health", h.Metrics.Health)
		r.GET("/ready", h.Metrics.Ready)
		r.GET("/metrics", h.Metrics.Prometheus)
	}

	api := r.Group(prefix)
	authed := chain(mw.RequireAuth)
	optional := chain(mw.OptionalAuth)

	if h.Auth != nil {
		auth := api.Group("/auth")
		auth.POST("/signup", with(chain(mw.AuthRateLimit), h.Auth.SignUp)...)
		auth.POST("/login", with(chain(mw.AuthRateLimit), h.Auth.Login)...)
		auth.POST("/refresh", with(chain(mw.AuthRateLimit), h.Auth.Refresh)...)
		auth.POST("/logout", with(authed, h.Auth.Logout)...)
		auth.POST("/change-password", with(authed, h.Auth.ChangePassword)...)
		auth.GET("/me", with(authed, h.Auth.Me)...)
	}

	if h.Catalog != nil {
		api.GET("/courses", h.Catalog.List)
		api.GET("/courses/:id", with(optional, h.Catalog.Get)...)
	}
	if h.Enrollment != nil {
		api.POST("/courses/:id/enroll", with(chain(mw.OptionalAuth, mw.EnrollAudit), h.Enrollment.Enroll)...)
		api.GET("/profile/enrollments", with(authed, h.Enrollment.Mine)...)
	}

	if h.Checkout != nil {
		checkout := api.Group("/checkout/sessions", authed...)
		checkout.POST("", h.Checkout.Start)
		checkout.GET("/:id", h.Checkout.Get)
		checkout.PATCH("/:id", h.Checkout.Update)
		checkout.POST("/:id/submit", h.Checkout.Submit)
	}

	if h.Dashboard != nil {
		api.GET("/dashboard", with(authed, h.Dashboard.Learner)...)
	}

	if h.Profile != nil {
		api.GET("/profile", with(authed, h.Profile.Get)...)
		api.PUT("/profile", with(authed, h.Profile.Update)...)
		api.GET("/profile/enrollments/export", with(authed, h.Profile.Export)...)
	}

	if h.Certificates != nil {
		api.GET("/certificates", with(authed, h.Certificates.List)...)
		api.GET("/certificates/:id/pdf", with(authed, h.Certificates.PDF)...)
		api.GET("/certificates/download", h.Certificates.Download)
	}
}

func chain(handlers ...gin.HandlerFunc) []gin.HandlerFunc {
	out := make([]gin.HandlerFunc, 0, len(handlers))
	for _, h := range handlers {
		if h != nil {
			out = append(out, h)
		}
	}
	return out
}

func with(middleware []gin.HandlerFunc, h gin.HandlerFunc) []gin.HandlerFunc {
	out := make([]gin.HandlerFunc, 0, len(middleware)+1)
	out = append(out, middleware...)
	return append(out, h)
}
