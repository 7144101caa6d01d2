package dynamics_test

import (
	"fmt"

	"github.com/cwbudde/algo-dyneq/dsp/dynamics"
)

func ExampleKneeComputer() {
	k := dynamics.NewKneeComputer()
	k.SetThreshold(-20)
	k.SetRatio(4)
	k.SetKneeW(6)

	for _, x := range []float64{-30, -17, -14, 0} {
		fmt.Printf("%4.0f dB -> %6.2f dB (portion %.2f)\n", x, k.Process(x), k.Portion(x))
	}
	// Output:
	//  -30 dB ->   0.00 dB (portion 0.00)
	//  -17 dB ->  -2.53 dB (portion 0.56)
	//  -14 dB ->  -4.50 dB (portion 1.00)
	//    0 dB -> -15.00 dB (portion 1.00)
}
