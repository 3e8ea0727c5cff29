package server

func (s *Server) initRoutes() {
	api := func(method, path string) string {
		return method + " " + RouteAPIPrefix + path
	}

	// Anonymous auth routes
	s.RegisterRouteHandler(api("POST", RouteAuthLogin), ChainMiddleware(s.LoginHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler(api("POST", RouteAuthSignup), ChainMiddleware(s.SignupHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler(api("POST", RouteAuthVerifyOTP), ChainMiddleware(s.VerifyOTPHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler(api("POST", RouteAuthResendOTP), ChainMiddleware(s.ResendOTPHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler(api("POST", RouteAuthForgotPassword), ChainMiddleware(s.ForgotPasswordHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler(api("POST", RouteAuthRefresh), ChainMiddleware(s.RefreshHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler(api("POST", RouteAuthLogout), ChainMiddleware(s.LogoutHandler(), s.APIMiddleware()...))

	// Products
	s.RegisterRouteHandler(api("GET", RouteProducts), ChainMiddleware(s.ListProductsHandler(), s.APIMiddleware(s.RequireAuth())...))
	s.RegisterRouteHandler(api("POST", RouteProducts), ChainMiddleware(s.CreateProductHandler(), s.APIMiddleware(s.RequireAuth())...))
	s.RegisterRouteHandler(api("GET", RouteProduct), ChainMiddleware(s.GetProductHandler(), s.APIMiddleware(s.RequireAuth())...))
	s.RegisterRouteHandler(api("PUT", RouteProduct), ChainMiddleware(s.UpdateProductHandler(), s.APIMiddleware(s.RequireAuth())...))
	s.RegisterRouteHandler(api("DELETE", RouteProduct), ChainMiddleware(s.DeleteProductHandler(), s.APIMiddleware(s.RequireAuth())...))

	// Profile
	s.RegisterRouteHandler(api("GET", RouteUserProfile), ChainMiddleware(s.MyProfileHandler(), s.APIMiddleware(s.RequireAuth())...))
	s.RegisterRouteHandler(api("PUT", RouteUserProfile), ChainMiddleware(s.UpdateProfileHandler(), s.APIMiddleware(s.RequireAuth())...))
	s.RegisterRouteHandler(api("GET", RouteUserProfileByID), ChainMiddleware(s.ProfileByIDHandler(), s.APIMiddleware(s.RequireAuth())...))

	s.RegisterRouteHandler("GET "+RouteUploads, ChainMiddleware(s.UploadHandler(), s.LoggingMiddleware, s.RecoverMiddleware))
	s.RegisterRouteFunc("GET "+RouteHealth, s.HealthHandler())
}
