package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	// Every API route is served below this prefix
	RouteAPIPrefix = "/api"

	// Auth Routes
	RouteAuthLogin          = "/auth/login"
	RouteAuthSignup         = "/auth/signup"
	RouteAuthVerifyOTP      = "/auth/verify-otp"
	RouteAuthResendOTP      = "/auth/resend-verification-otp"
	RouteAuthForgotPassword = "/auth/forgot-password"
	RouteAuthRefresh        = "/auth/refresh-token"
	RouteAuthLogout         = "/auth/logout"

	// Product Routes
	RouteProducts = "/products"
	RouteProduct  = "/products/{id}"

	// Profile Routes
	RouteUserProfile     = "/user/profile"
	RouteUserProfileByID = "/user/profile/{id}"

	// Uploaded images, served outside the API prefix
	RouteUploads = "/uploads/{id}"

	RouteHealth = "/health"
)
