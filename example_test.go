package imgblend_test

import (
	"fmt"

	"github.com/vearutop/imgblend"
)

func ExampleBlend() {
	a, _ := imgblend.WrapSurface(2, 1, 1, []float32{1, 3})
	b, _ := imgblend.WrapSurface(2, 1, 1, []float32{5, 7})

	out, err := imgblend.Blend([]imgblend.Layer{a, b}, []float64{1, 3})
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(out.Pix)

	// Output: [4 6]
}
