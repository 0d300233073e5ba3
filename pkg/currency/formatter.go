package currency

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
)

var symbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"INR": "₹",
}

// Round rounds amount to cents, ties away from zero. amount is taken as the
// shortest decimal that reads back as the same float64, so 2.675 is a tie
// while 1.234999999 is not.
func Round(amount float64) float64 {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return amount
	}
	return roundCents(exact(amount))
}

// RoundSum adds amounts as decimals and rounds the exact total to cents.
func RoundSum(amounts ...float64) float64 {
	total := new(big.Rat)
	for _, a := range amounts {
		if math.IsNaN(a) || math.IsInf(a, 0) {
			return a
		}
		total.Add(total, exact(a))
	}
	return roundCents(total)
}

func exact(amount float64) *big.Rat {
	r, _ := new(big.Rat).SetString(strconv.FormatFloat(amount, 'f', -1, 64))
	return r
}

var hundred = big.NewInt(100)

func roundCents(r *big.Rat) float64 {
	num := new(big.Int).Mul(r.Num(), hundred)
	negative := num.Sign() < 0
	num.Abs(num)

	cents, rem := new(big.Int).QuoRem(num, r.Denom(), new(big.Int))
	if rem.Lsh(rem, 1).Cmp(r.Denom()) >= 0 {
		cents.Add(cents, big.NewInt(1))
	}
	if negative {
		cents.Neg(cents)
	}

	f, _ := new(big.Rat).SetFrac(cents, hundred).Float64()
	return f
}

// Format renders amount with two decimals and thousands separators, prefixed
// with the currency symbol when one is known: Format(2537, "USD") == "$2,537.00".
func Format(amount float64, code string) string {
	rounded := Round(amount)

	negative := rounded < 0
	if negative {
		rounded = -rounded
	}

	str := fmt.Sprintf("%.2f", rounded)
	intPart, fracPart, _ := strings.Cut(str, ".")
	formatted := addThousandsSeparator(intPart, ",") + "." + fracPart

	code = strings.ToUpper(code)
	var result string
	if sym, ok := symbols[code]; ok {
		result = sym + formatted
	} else {
		result = code + " " + formatted
	}

	if negative {
		result = "-" + result
	}

	return result
}

func addThousandsSeparator(s string, sep string) string {
	n := len(s)
	if n <= 3 {
		return s
	}

	numSeps := (n - 1) / 3
	result := make([]byte, n+numSeps)

	j := len(result) - 1
	for i := n - 1; i >= 0; i-- {
		result[j] = s[i]
		j--

		pos := n - i
		if pos%3 == 0 && i > 0 {
			result[j] = sep[0]
			j--
		}
	}

	return string(result)
}
