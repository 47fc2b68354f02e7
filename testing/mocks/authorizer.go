package mocks

type Authorizer struct {
	AuthorizedFunc func(identity string) bool
}

// BaselineAuthorizer authorizes GenericValidator only.
func BaselineAuthorizer() *Authorizer {
	a := Authorizer{
		AuthorizedFunc: func(identity string) bool {
			return identity == GenericValidator
		},
	}

	return &a
}

func (a *Authorizer) Authorized(identity string) bool {
	return a.AuthorizedFunc(identity)
}
