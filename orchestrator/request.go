package orchestrator

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/vainnor/ensemble-predict/profile"
	"github.com/vainnor/ensemble-predict/types"
)

// Simulator endpoints. Standard flights are sent to the bounded endpoint
// with no equilibrium hold.
const (
	PathBounded = "/singlezpb"
	PathFloat   = "/singlepredict"
)

// Template builds the request URL shared by every member of a sweep. The
// member index is appended by MemberURL.
func Template(baseURL string, p types.FlightProfile, launch types.Launch) string {
	q := url.Values{}
	q.Set("timestamp", strconv.FormatInt(launch.Time.UTC().Unix(), 10))
	q.Set("lat", num(launch.Latitude))
	q.Set("lon", num(launch.Longitude))
	q.Set(profile.FieldAltitude, num(launch.Altitude))

	var path string
	switch v := p.(type) {
	case types.Standard:
		path = PathBounded
		q.Set(profile.FieldEquil, num(v.BurstAltitude))
		q.Set(profile.FieldEqTime, "0")
		q.Set(profile.FieldAscent, num(v.AscentRate))
		q.Set(profile.FieldDescent, num(v.DescentRate))
	case types.ZeroPressureBalloon:
		path = PathBounded
		q.Set(profile.FieldEquil, num(v.EquilibriumAltitude))
		q.Set(profile.FieldEqTime, num(v.EquilibriumHoldHours))
		q.Set(profile.FieldAscent, num(v.AscentRate))
		q.Set(profile.FieldDescent, num(v.DescentRate))
	case types.Float:
		path = PathFloat
		q.Set("rate", "0")
		q.Set(profile.FieldCoeff, num(v.Coefficient))
		q.Set(profile.FieldStep, num(v.StepSize))
		q.Set(profile.FieldDuration, num(v.DurationHours))
	default:
		panic(fmt.Sprintf("unhandled flight profile %T", p))
	}
	return strings.TrimRight(baseURL, "/") + path + "?" + q.Encode()
}

// MemberURL selects one ensemble member of a template.
func MemberURL(template string, member int) string {
	return template + "&model=" + strconv.Itoa(member)
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
