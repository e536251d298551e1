package util

import (
	libconstants "github.com/filswan/go-swan-lib/constants"
)

type BasicResponse struct {
	Status  string      `json:"status"`
	Code    int         `json:"code"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

func CreateSuccessResponse(_data interface{}) BasicResponse {
	return BasicResponse{
		Status: libconstants.SWAN_API_STATUS_SUCCESS,
		Data:   _data,
		Code:   SuccessCode,
	}
}

func CreateErrorResponse(code int, errMsg ...string) BasicResponse {
	var msg string
	if len(errMsg) == 0 {
		msg = codeMsg[code]
	} else {
		msg = errMsg[0]
	}
	return BasicResponse{
		Status:  libconstants.SWAN_API_STATUS_FAIL,
		Code:    code,
		Message: msg,
	}
}

const (
	SuccessCode = 200
	JsonError   = 400

	BadRequestError       = 7001
	NoEligibleProviders   = 7002
	RoutingInternalError  = 7003
	ProviderRegisterError = 7004
)

var codeMsg = map[int]string{
	JsonError: "An error occurred while converting to json",

	BadRequestError:       "The job request is malformed",
	NoEligibleProviders:   "No providers match the job constraints, try relaxing them",
	RoutingInternalError:  "An error occurred while routing the job",
	ProviderRegisterError: "An error occurred while registering the provider",
}
