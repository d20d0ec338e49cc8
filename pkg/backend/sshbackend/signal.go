package sshbackend

// signalNumbers maps the signal name golang.org/x/crypto/ssh's exit-signal
// request carries ("TERM", "INT", ...) to its POSIX signal number on
// Linux. This mirrors the original's fixed signames[NSIG] lookup table; an
// unrecognized name maps to -1, same as the original.
var signalNumbers = map[string]int{
	"HUP":    1,
	"INT":    2,
	"QUIT":   3,
	"ILL":    4,
	"TRAP":   5,
	"ABRT":   6,
	"IOT":    6,
	"BUS":    7,
	"FPE":    8,
	"KILL":   9,
	"USR1":   10,
	"SEGV":   11,
	"USR2":   12,
	"PIPE":   13,
	"ALRM":   14,
	"TERM":   15,
	"STKFLT": 16,
	"CHLD":   17,
	"CONT":   18,
	"STOP":   19,
	"TSTP":   20,
	"TTIN":   21,
	"TTOU":   22,
	"URG":    23,
	"XCPU":   24,
	"XFSZ":   25,
	"VTALRM": 26,
	"PROF":   27,
	"WINCH":  28,
	"IO":     29,
	"PWR":    30,
	"SYS":    31,
}

// signalNumber returns the POSIX signal number for name, or -1 if name is
// not recognized.
func signalNumber(name string) int {
	if n, ok := signalNumbers[name]; ok {
		return n
	}
	return -1
}
