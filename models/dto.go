package models

// Request bodies for the /api/Auth and /api/OTP endpoints. Field names match
// the backend's JSON contract.

type UserCredential struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type CreateUser struct {
	Username    string   `json:"username"`
	Password    string   `json:"password"`
	Email       string   `json:"email"`
	DisplayName string   `json:"displayName"`
	UserRole    UserRole `json:"userRole"`
}

type GoogleSignIn struct {
	IDToken  string   `json:"idToken"`
	UserRole UserRole `json:"userRole"`
}

type ChangePassword struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

type ForgetPassword struct {
	Email string `json:"email"`
}

type SendOTP struct {
	Email string `json:"email"`
}

type VerifyOTP struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

// LoginResponse is the envelope returned by Login, GoogleSignIn and Signup.
type LoginResponse struct {
	AccessToken struct {
		AccessToken string `json:"accessToken"`
	} `json:"accessToken"`
	AppUser AppUser `json:"appUser"`
}
