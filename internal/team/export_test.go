package team

// SetCodeGenerator overrides the invite code source so tests can force
// collisions.
func SetCodeGenerator(s *Service, f func() string) {
	s.newCode = f
}
