// Package access implements the role-based navigation guard.
//
// A Guard turns the current session state and a route's Requirement into
// a Decision: Allow, or Redirect to the login or forbidden page. The
// route table mirrors the clinic app's protected areas.
//
//	guard := access.NewGuard(sess, logger)
//	if route, ok := access.Lookup(r.URL.Path); ok {
//	    d := guard.Evaluate(route.Roles)
//	    if !d.Allowed() {
//	        http.Redirect(w, r, d.Target.Path(), http.StatusSeeOther)
//	    }
//	}
package access
