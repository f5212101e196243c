package session

import "github.com/me/gobank/pkg/model"

// Success messages.
const (
	MsgLoginSuccess         = "Login successful!"
	MsgRegisterSuccess      = "Registration successful! Please login."
	MsgAccountCreated       = "Account created successfully!"
	MsgTransferDone         = "Transfer completed successfully!"
	MsgGroupFunded          = "Group funded successfully!"
	MsgGroupCreated         = "Group created successfully!"
	MsgMemberAdded          = "Member added successfully!"
	MsgMemberRemoved        = "Member removed successfully!"
	MsgGroupPaid            = "Payment completed successfully!"
	MsgGroupDeactivated     = "Group deactivated successfully"
	MsgAccountDeactivated   = "Account deactivated successfully"
	MsgAlreadyAuthenticated = "Already logged in. Log out first."
)

// describe turns a classified error into the message stored in errorMessage.
// Server-side rejections are prefixed with the operation label; the other
// kinds already carry complete text.
func describe(label string, err error) string {
	switch model.KindOf(err) {
	case model.KindValidation, model.KindServer:
		return label + " failed: " + model.UserMessage(err)
	case "":
		return label + " failed: " + err.Error()
	}
	return model.UserMessage(err)
}

// phaseMessage explains why an operation is not available in st.
func phaseMessage(st model.SessionState) string {
	switch st {
	case model.SessionStateAnonymous:
		return "Please log in first"
	case model.SessionStateAuthenticating:
		return "Login is still in progress"
	case model.SessionStateNoProfile:
		return "Please create your account profile first"
	case model.SessionStateWithProfile:
		return "Your account profile already exists"
	}
	return "Operation not available"
}
