package engine

// matchGlob reports whether s matches pattern, where '*' matches any run
// of bytes (including none) and '?' matches exactly one byte. Matching is
// byte-wise since keys are opaque binary-safe strings, not runes.
func matchGlob(pattern, s string) bool {
	return matchGlobBytes([]byte(pattern), []byte(s))
}

func matchGlobBytes(pattern, s []byte) bool {
	// Classic DP over (len(pattern)+1) x (len(s)+1).
	pl, sl := len(pattern), len(s)
	dp := make([][]bool, pl+1)
	for i := range dp {
		dp[i] = make([]bool, sl+1)
	}
	dp[0][0] = true
	for i := 1; i <= pl; i++ {
		if pattern[i-1] == '*' {
			dp[i][0] = dp[i-1][0]
		}
	}

	for i := 1; i <= pl; i++ {
		for j := 1; j <= sl; j++ {
			switch pattern[i-1] {
			case '*':
				dp[i][j] = dp[i-1][j] || dp[i][j-1]
			case '?':
				dp[i][j] = dp[i-1][j-1]
			default:
				dp[i][j] = dp[i-1][j-1] && pattern[i-1] == s[j-1]
			}
		}
	}

	return dp[pl][sl]
}
