package jwttoken

// SubjectValidator adapts JWTService to the auth middleware, which only needs
// the caller's subject.
type SubjectValidator struct {
	service *JWTService
}

func NewSubjectValidator(service *JWTService) *SubjectValidator {
	return &SubjectValidator{service: service}
}

func (a *SubjectValidator) ValidateToken(tokenString string) (string, error) {
	claims, err := a.service.ValidateToken(tokenString)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}
